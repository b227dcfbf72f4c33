//go:build integration

// Package containers starts throwaway backing services for integration
// tests. Requires a local container runtime; gated behind the integration
// build tag.
package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema mirrors the table layouts the postgres stores document.
const schema = `
CREATE TABLE IF NOT EXISTS madres (
    id bigserial PRIMARY KEY,
    rut text NOT NULL UNIQUE,
    nombre text NOT NULL,
    fecha_nacimiento date NOT NULL,
    direccion text NOT NULL DEFAULT '',
    telefono text NOT NULL DEFAULT '',
    nacionalidad text NULL,
    pueblo_originario boolean NOT NULL DEFAULT false
);

CREATE TABLE IF NOT EXISTS partos (
    id bigserial PRIMARY KEY,
    madre_id bigint NOT NULL REFERENCES madres(id) ON DELETE CASCADE,
    registrado_por uuid NULL,
    fecha_parto timestamptz NOT NULL,
    edad_gestacional_semanas int NOT NULL,
    personal_atiende text NOT NULL DEFAULT '',
    tipo_parto text NOT NULL DEFAULT '',
    tipo_analgesia text NOT NULL DEFAULT '',
    complicaciones_texto text NOT NULL DEFAULT '',
    uso_oxitocina boolean NOT NULL DEFAULT false,
    ligadura_tardia_cordon boolean NOT NULL DEFAULT false,
    contacto_piel_a_piel boolean NOT NULL DEFAULT false
);

CREATE TABLE IF NOT EXISTS recien_nacidos (
    id bigserial PRIMARY KEY,
    parto_id bigint NOT NULL REFERENCES partos(id) ON DELETE CASCADE,
    sexo text NOT NULL,
    peso_grs int NOT NULL,
    talla_cm numeric NOT NULL DEFAULT 0,
    apgar_1_min int NOT NULL,
    apgar_5_min int NOT NULL,
    profilaxis_ocular boolean NOT NULL DEFAULT true,
    vacuna_hepatitis_b boolean NOT NULL DEFAULT true,
    anomalia_congenita boolean NOT NULL DEFAULT false,
    reanimacion text NOT NULL DEFAULT '',
    alimentacion_alta text NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS defunciones (
    id bigserial PRIMARY KEY,
    tipo text NOT NULL,
    sujeto_id bigint NOT NULL,
    timestamp timestamptz NOT NULL,
    causa text NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS historial_acciones (
    id bigserial PRIMARY KEY,
    usuario_id uuid NULL,
    usuario_nombre text NOT NULL DEFAULT '',
    timestamp timestamptz NOT NULL,
    accion text NOT NULL,
    tipo_objeto text NOT NULL,
    objeto_id bigint NOT NULL,
    detalles text NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS historial_sesiones (
    id bigserial PRIMARY KEY,
    usuario_id uuid NULL,
    usuario_nombre text NOT NULL DEFAULT '',
    timestamp timestamptz NOT NULL,
    accion text NOT NULL,
    ip_address text NULL
);

CREATE TABLE IF NOT EXISTS solicitudes_correccion (
    id bigserial PRIMARY KEY,
    registro_id bigint NOT NULL,
    solicitado_por uuid NULL,
    resuelto_por uuid NULL,
    mensaje text NOT NULL,
    estado text NOT NULL,
    fecha_creacion timestamptz NOT NULL,
    fecha_resolucion timestamptz NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS solicitudes_correccion_pendiente_uniq
    ON solicitudes_correccion (registro_id) WHERE estado = 'pendiente';
`

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// application schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
	DSN       string
}

// NewPostgresContainer starts a PostgreSQL container, applies the schema,
// and registers cleanup with the test.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("maternidad_test"),
		tcpostgres.WithUsername("maternidad"),
		tcpostgres.WithPassword("maternidad"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	pc := &PostgresContainer{Container: container, DB: db, DSN: dsn}
	t.Cleanup(func() {
		_ = db.Close()
		_ = container.Terminate(context.Background())
	})
	return pc
}

// TruncateTables empties the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
	_, err := p.DB.ExecContext(ctx, query)
	return err
}
