package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"maternidad/internal/clinical/models"
	"maternidad/internal/clinical/store"
	"maternidad/internal/report"
	"maternidad/pkg/domain"
)

// Store persists the clinical record corpus in PostgreSQL.
//
// Expected schema:
//
//	madres (
//	    id bigserial primary key,
//	    rut text not null unique,
//	    nombre text not null,
//	    fecha_nacimiento date not null,
//	    direccion text not null default '',
//	    telefono text not null default '',
//	    nacionalidad text null,
//	    pueblo_originario boolean not null default false
//	)
//
//	partos (
//	    id bigserial primary key,
//	    madre_id bigint not null references madres(id),
//	    registrado_por uuid null,
//	    fecha_parto timestamptz not null,
//	    edad_gestacional_semanas int not null,
//	    personal_atiende text not null default '',
//	    tipo_parto text not null default '',
//	    tipo_analgesia text not null default '',
//	    complicaciones_texto text not null default '',
//	    uso_oxitocina boolean not null default false,
//	    ligadura_tardia_cordon boolean not null default false,
//	    contacto_piel_a_piel boolean not null default false
//	)
//
//	recien_nacidos (
//	    id bigserial primary key,
//	    parto_id bigint not null references partos(id),
//	    sexo text not null,
//	    peso_grs int not null,
//	    talla_cm numeric not null default 0,
//	    apgar_1_min int not null,
//	    apgar_5_min int not null,
//	    profilaxis_ocular boolean not null default true,
//	    vacuna_hepatitis_b boolean not null default true,
//	    anomalia_congenita boolean not null default false,
//	    reanimacion text not null default '',
//	    alimentacion_alta text not null default ''
//	)
//
//	defunciones (
//	    id bigserial primary key,
//	    tipo text not null,
//	    sujeto_id bigint not null,
//	    timestamp timestamptz not null,
//	    causa text not null default ''
//	)
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const pqUniqueViolation = "23505"

func mapWriteErr(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return store.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ----- mothers -----

func (s *Store) CreateMother(ctx context.Context, m *models.Mother) (domain.MotherID, error) {
	query := `
		INSERT INTO madres (rut, nombre, fecha_nacimiento, direccion, telefono, nacionalidad, pueblo_originario)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		m.RUT, m.Name, m.BirthDate, m.Address, m.Phone, m.Nationality, m.IndigenousCommunity,
	).Scan(&id)
	if err != nil {
		return 0, mapWriteErr(err, "insert mother")
	}
	m.ID = domain.MotherID(id)
	return m.ID, nil
}

func (s *Store) GetMother(ctx context.Context, id domain.MotherID) (*models.Mother, error) {
	query := `
		SELECT id, rut, nombre, fecha_nacimiento, direccion, telefono, nacionalidad, pueblo_originario
		FROM madres WHERE id = $1
	`
	var m models.Mother
	err := s.db.QueryRowContext(ctx, query, int64(id)).Scan(
		&m.ID, &m.RUT, &m.Name, &m.BirthDate, &m.Address, &m.Phone, &m.Nationality, &m.IndigenousCommunity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get mother: %w", err)
	}
	return &m, nil
}

func (s *Store) ListMothers(ctx context.Context) ([]models.Mother, error) {
	query := `
		SELECT id, rut, nombre, fecha_nacimiento, direccion, telefono, nacionalidad, pueblo_originario
		FROM madres ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list mothers: %w", err)
	}
	defer rows.Close()

	var out []models.Mother
	for rows.Next() {
		var m models.Mother
		if err := rows.Scan(&m.ID, &m.RUT, &m.Name, &m.BirthDate, &m.Address, &m.Phone, &m.Nationality, &m.IndigenousCommunity); err != nil {
			return nil, fmt.Errorf("scan mother: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) UpdateMother(ctx context.Context, m *models.Mother) error {
	query := `
		UPDATE madres
		SET rut = $2, nombre = $3, fecha_nacimiento = $4, direccion = $5,
		    telefono = $6, nacionalidad = $7, pueblo_originario = $8
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		int64(m.ID), m.RUT, m.Name, m.BirthDate, m.Address, m.Phone, m.Nationality, m.IndigenousCommunity,
	)
	if err != nil {
		return mapWriteErr(err, "update mother")
	}
	return affectedOne(res, "update mother")
}

func (s *Store) DeleteMother(ctx context.Context, id domain.MotherID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM madres WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete mother: %w", err)
	}
	return affectedOne(res, "delete mother")
}

// ----- deliveries -----

func (s *Store) CreateDelivery(ctx context.Context, d *models.Delivery) (domain.DeliveryID, error) {
	query := `
		INSERT INTO partos
			(madre_id, registrado_por, fecha_parto, edad_gestacional_semanas, personal_atiende,
			 tipo_parto, tipo_analgesia, complicaciones_texto, uso_oxitocina,
			 ligadura_tardia_cordon, contacto_piel_a_piel)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		int64(d.MotherID), registrarValue(d.RegisteredBy), d.Date, d.GestationalWeeks, d.AttendedBy,
		d.DeliveryType, d.Analgesia, d.Complications, d.Oxytocin,
		d.DelayedCordClamping, d.SkinToSkin,
	).Scan(&id)
	if err != nil {
		return 0, mapWriteErr(err, "insert delivery")
	}
	d.ID = domain.DeliveryID(id)
	return d.ID, nil
}

func (s *Store) GetDelivery(ctx context.Context, id domain.DeliveryID) (*models.Delivery, error) {
	query := `
		SELECT id, madre_id, registrado_por, fecha_parto, edad_gestacional_semanas, personal_atiende,
		       tipo_parto, tipo_analgesia, complicaciones_texto, uso_oxitocina,
		       ligadura_tardia_cordon, contacto_piel_a_piel
		FROM partos WHERE id = $1
	`
	var (
		d            models.Delivery
		registeredBy *uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, int64(id)).Scan(
		&d.ID, &d.MotherID, &registeredBy, &d.Date, &d.GestationalWeeks, &d.AttendedBy,
		&d.DeliveryType, &d.Analgesia, &d.Complications, &d.Oxytocin,
		&d.DelayedCordClamping, &d.SkinToSkin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get delivery: %w", err)
	}
	if registeredBy != nil {
		userID := domain.UserID(*registeredBy)
		d.RegisteredBy = &userID
	}
	return &d, nil
}

func (s *Store) ListDeliveries(ctx context.Context) ([]models.Delivery, error) {
	query := `
		SELECT id, madre_id, registrado_por, fecha_parto, edad_gestacional_semanas, personal_atiende,
		       tipo_parto, tipo_analgesia, complicaciones_texto, uso_oxitocina,
		       ligadura_tardia_cordon, contacto_piel_a_piel
		FROM partos ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []models.Delivery
	for rows.Next() {
		var (
			d            models.Delivery
			registeredBy *uuid.UUID
		)
		if err := rows.Scan(
			&d.ID, &d.MotherID, &registeredBy, &d.Date, &d.GestationalWeeks, &d.AttendedBy,
			&d.DeliveryType, &d.Analgesia, &d.Complications, &d.Oxytocin,
			&d.DelayedCordClamping, &d.SkinToSkin,
		); err != nil {
			return nil, fmt.Errorf("scan delivery: %w", err)
		}
		if registeredBy != nil {
			userID := domain.UserID(*registeredBy)
			d.RegisteredBy = &userID
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) UpdateDelivery(ctx context.Context, d *models.Delivery) error {
	query := `
		UPDATE partos
		SET madre_id = $2, fecha_parto = $3, edad_gestacional_semanas = $4, personal_atiende = $5,
		    tipo_parto = $6, tipo_analgesia = $7, complicaciones_texto = $8, uso_oxitocina = $9,
		    ligadura_tardia_cordon = $10, contacto_piel_a_piel = $11
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		int64(d.ID), int64(d.MotherID), d.Date, d.GestationalWeeks, d.AttendedBy,
		d.DeliveryType, d.Analgesia, d.Complications, d.Oxytocin,
		d.DelayedCordClamping, d.SkinToSkin,
	)
	if err != nil {
		return mapWriteErr(err, "update delivery")
	}
	return affectedOne(res, "update delivery")
}

func (s *Store) DeleteDelivery(ctx context.Context, id domain.DeliveryID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM partos WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete delivery: %w", err)
	}
	return affectedOne(res, "delete delivery")
}

// ----- newborns -----

func (s *Store) CreateNewborn(ctx context.Context, n *models.Newborn) (domain.NewbornID, error) {
	query := `
		INSERT INTO recien_nacidos
			(parto_id, sexo, peso_grs, talla_cm, apgar_1_min, apgar_5_min, profilaxis_ocular,
			 vacuna_hepatitis_b, anomalia_congenita, reanimacion, alimentacion_alta)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query,
		int64(n.DeliveryID), string(n.Sex), n.WeightGrams, n.HeightCm, n.Apgar1Min, n.Apgar5Min,
		n.OcularProphylaxis, n.HepatitisBVaccine, n.CongenitalAnomaly,
		string(n.Resuscitation), string(n.FeedingAtDischarge),
	).Scan(&id)
	if err != nil {
		return 0, mapWriteErr(err, "insert newborn")
	}
	n.ID = domain.NewbornID(id)
	return n.ID, nil
}

func (s *Store) GetNewborn(ctx context.Context, id domain.NewbornID) (*models.Newborn, error) {
	query := `
		SELECT id, parto_id, sexo, peso_grs, talla_cm, apgar_1_min, apgar_5_min, profilaxis_ocular,
		       vacuna_hepatitis_b, anomalia_congenita, reanimacion, alimentacion_alta
		FROM recien_nacidos WHERE id = $1
	`
	var n models.Newborn
	err := s.db.QueryRowContext(ctx, query, int64(id)).Scan(
		&n.ID, &n.DeliveryID, &n.Sex, &n.WeightGrams, &n.HeightCm, &n.Apgar1Min, &n.Apgar5Min,
		&n.OcularProphylaxis, &n.HepatitisBVaccine, &n.CongenitalAnomaly, &n.Resuscitation, &n.FeedingAtDischarge,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get newborn: %w", err)
	}
	return &n, nil
}

func (s *Store) ListNewborns(ctx context.Context) ([]models.Newborn, error) {
	query := `
		SELECT id, parto_id, sexo, peso_grs, talla_cm, apgar_1_min, apgar_5_min, profilaxis_ocular,
		       vacuna_hepatitis_b, anomalia_congenita, reanimacion, alimentacion_alta
		FROM recien_nacidos ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list newborns: %w", err)
	}
	defer rows.Close()

	var out []models.Newborn
	for rows.Next() {
		var n models.Newborn
		if err := rows.Scan(
			&n.ID, &n.DeliveryID, &n.Sex, &n.WeightGrams, &n.HeightCm, &n.Apgar1Min, &n.Apgar5Min,
			&n.OcularProphylaxis, &n.HepatitisBVaccine, &n.CongenitalAnomaly, &n.Resuscitation, &n.FeedingAtDischarge,
		); err != nil {
			return nil, fmt.Errorf("scan newborn: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) UpdateNewborn(ctx context.Context, n *models.Newborn) error {
	query := `
		UPDATE recien_nacidos
		SET parto_id = $2, sexo = $3, peso_grs = $4, talla_cm = $5, apgar_1_min = $6, apgar_5_min = $7,
		    profilaxis_ocular = $8, vacuna_hepatitis_b = $9, anomalia_congenita = $10,
		    reanimacion = $11, alimentacion_alta = $12
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		int64(n.ID), int64(n.DeliveryID), string(n.Sex), n.WeightGrams, n.HeightCm, n.Apgar1Min, n.Apgar5Min,
		n.OcularProphylaxis, n.HepatitisBVaccine, n.CongenitalAnomaly,
		string(n.Resuscitation), string(n.FeedingAtDischarge),
	)
	if err != nil {
		return mapWriteErr(err, "update newborn")
	}
	return affectedOne(res, "update newborn")
}

func (s *Store) DeleteNewborn(ctx context.Context, id domain.NewbornID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recien_nacidos WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete newborn: %w", err)
	}
	return affectedOne(res, "delete newborn")
}

// ----- deaths -----

func (s *Store) CreateDeath(ctx context.Context, d *models.Death) (domain.DeathID, error) {
	query := `
		INSERT INTO defunciones (tipo, sujeto_id, timestamp, causa)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	err := s.db.QueryRowContext(ctx, query, string(d.Kind), d.PersonID, d.Timestamp, d.Cause).Scan(&id)
	if err != nil {
		return 0, mapWriteErr(err, "insert death")
	}
	d.ID = domain.DeathID(id)
	return d.ID, nil
}

func (s *Store) GetDeath(ctx context.Context, id domain.DeathID) (*models.Death, error) {
	query := `SELECT id, tipo, sujeto_id, timestamp, causa FROM defunciones WHERE id = $1`
	var d models.Death
	err := s.db.QueryRowContext(ctx, query, int64(id)).Scan(&d.ID, &d.Kind, &d.PersonID, &d.Timestamp, &d.Cause)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get death: %w", err)
	}
	return &d, nil
}

func (s *Store) ListDeaths(ctx context.Context) ([]models.Death, error) {
	query := `SELECT id, tipo, sujeto_id, timestamp, causa FROM defunciones ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list deaths: %w", err)
	}
	defer rows.Close()

	var out []models.Death
	for rows.Next() {
		var d models.Death
		if err := rows.Scan(&d.ID, &d.Kind, &d.PersonID, &d.Timestamp, &d.Cause); err != nil {
			return nil, fmt.Errorf("scan death: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) DeleteDeath(ctx context.Context, id domain.DeathID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM defunciones WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete death: %w", err)
	}
	return affectedOne(res, "delete death")
}

// ----- report snapshots -----

func (s *Store) DeliveriesInRange(ctx context.Context, from, to time.Time) ([]report.DeliveryRow, error) {
	query := `
		SELECT p.fecha_parto, p.tipo_parto, p.edad_gestacional_semanas, p.uso_oxitocina,
		       p.ligadura_tardia_cordon, p.contacto_piel_a_piel,
		       m.fecha_nacimiento, m.nacionalidad, m.pueblo_originario
		FROM partos p
		JOIN madres m ON m.id = p.madre_id
		WHERE p.fecha_parto BETWEEN $1 AND $2
	`
	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query deliveries in range: %w", err)
	}
	defer rows.Close()

	var out []report.DeliveryRow
	for rows.Next() {
		var r report.DeliveryRow
		if err := rows.Scan(
			&r.Date, &r.TypeLabel, &r.GestationalWeeks, &r.Oxytocin,
			&r.DelayedCordClamping, &r.SkinToSkin,
			&r.MotherBirthDate, &r.MotherNationality, &r.MotherIndigenous,
		); err != nil {
			return nil, fmt.Errorf("scan delivery row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) NewbornsInRange(ctx context.Context, from, to time.Time) ([]report.NewbornRow, error) {
	query := `
		SELECT n.sexo, n.peso_grs, n.apgar_1_min, n.apgar_5_min, n.profilaxis_ocular,
		       n.vacuna_hepatitis_b, n.anomalia_congenita, n.reanimacion, n.alimentacion_alta,
		       p.tipo_parto, m.nacionalidad, m.pueblo_originario
		FROM recien_nacidos n
		JOIN partos p ON p.id = n.parto_id
		JOIN madres m ON m.id = p.madre_id
		WHERE p.fecha_parto BETWEEN $1 AND $2
	`
	rows, err := s.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query newborns in range: %w", err)
	}
	defer rows.Close()

	var out []report.NewbornRow
	for rows.Next() {
		var r report.NewbornRow
		if err := rows.Scan(
			&r.Sex, &r.WeightGrams, &r.Apgar1Min, &r.Apgar5Min, &r.OcularProphylaxis,
			&r.HepatitisBVaccine, &r.CongenitalAnomaly, &r.Resuscitation, &r.FeedingAtDischarge,
			&r.DeliveryTypeLabel, &r.MotherNationality, &r.MotherIndigenous,
		); err != nil {
			return nil, fmt.Errorf("scan newborn row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) DeathsInRange(ctx context.Context, kind models.DeathKind, from, to time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM defunciones WHERE tipo = $1 AND timestamp BETWEEN $2 AND $3`
	var count int
	if err := s.db.QueryRowContext(ctx, query, string(kind), from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("count deaths in range: %w", err)
	}
	return count, nil
}

func registrarValue(id *domain.UserID) any {
	if id == nil {
		return nil
	}
	return uuid.UUID(*id)
}

func affectedOne(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
