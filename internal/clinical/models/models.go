// Package models defines the maternity-ward clinical entities: mothers,
// delivery records, newborns, and death records. Each implements the audit
// Auditable capability so mutations can be logged generically.
package models

import (
	"fmt"
	"strings"
	"time"

	"maternidad/internal/audit"
	"maternidad/pkg/domain"
	dErrors "maternidad/pkg/domain-errors"
)

// Mother is a ward patient. Nationality is free text and nullable; a NULL
// nationality counts as neither domestic nor foreign in the REM report.
type Mother struct {
	ID                  domain.MotherID `json:"id"`
	RUT                 string          `json:"rut"`
	Name                string          `json:"nombre"`
	BirthDate           time.Time       `json:"fecha_nacimiento"`
	Address             string          `json:"direccion,omitempty"`
	Phone               string          `json:"telefono,omitempty"`
	Nationality         *string         `json:"nacionalidad,omitempty"`
	IndigenousCommunity bool            `json:"pueblo_originario"`
}

func NewMother(rut, name string, birthDate time.Time) (*Mother, error) {
	rut = strings.TrimSpace(rut)
	name = strings.TrimSpace(name)
	if rut == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "mother rut cannot be empty")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "mother name cannot be empty")
	}
	if birthDate.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "mother birth date is required")
	}
	return &Mother{RUT: rut, Name: name, BirthDate: birthDate}, nil
}

func (m *Mother) SubjectType() audit.SubjectType { return audit.SubjectMother }
func (m *Mother) SubjectID() int64               { return int64(m.ID) }
func (m *Mother) String() string                 { return fmt.Sprintf("%s (%s)", m.Name, m.RUT) }

// Delivery is one birth event. DeliveryType is a free-text label from the
// ward's configurable catalog; the report categorizes it by substring match,
// never by a closed enum.
type Delivery struct {
	ID                  domain.DeliveryID `json:"id"`
	MotherID            domain.MotherID   `json:"madre"`
	RegisteredBy        *domain.UserID    `json:"registrado_por,omitempty"`
	Date                time.Time         `json:"fecha_parto"`
	GestationalWeeks    int               `json:"edad_gestacional_semanas"`
	AttendedBy          string            `json:"personal_atiende,omitempty"`
	DeliveryType        string            `json:"tipo_parto,omitempty"`
	Analgesia           string            `json:"tipo_analgesia,omitempty"`
	Complications       string            `json:"complicaciones_texto,omitempty"`
	Oxytocin            bool              `json:"uso_oxitocina"`
	DelayedCordClamping bool              `json:"ligadura_tardia_cordon"`
	SkinToSkin          bool              `json:"contacto_piel_a_piel"`
}

func NewDelivery(motherID domain.MotherID, date time.Time, gestationalWeeks int) (*Delivery, error) {
	if motherID == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "delivery requires a mother")
	}
	if date.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "delivery date is required")
	}
	if gestationalWeeks < 20 || gestationalWeeks > 45 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "gestational age must be between 20 and 45 weeks")
	}
	return &Delivery{MotherID: motherID, Date: date, GestationalWeeks: gestationalWeeks}, nil
}

func (d *Delivery) SubjectType() audit.SubjectType { return audit.SubjectDelivery }
func (d *Delivery) SubjectID() int64               { return int64(d.ID) }
func (d *Delivery) String() string {
	return fmt.Sprintf("Parto de madre %d el %s", d.MotherID, d.Date.Format("2006-01-02"))
}

// Sex of a newborn as recorded at birth.
type Sex string

const (
	SexMale          Sex = "M"
	SexFemale        Sex = "F"
	SexIndeterminate Sex = "I"
)

func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale || s == SexIndeterminate
}

// Resuscitation level applied in immediate newborn care.
type Resuscitation string

const (
	ResuscitationNone     Resuscitation = ""
	ResuscitationBasic    Resuscitation = "basica"
	ResuscitationAdvanced Resuscitation = "avanzada"
)

func (r Resuscitation) Valid() bool {
	return r == ResuscitationNone || r == ResuscitationBasic || r == ResuscitationAdvanced
}

// Feeding records the feeding type at discharge.
type Feeding string

const (
	FeedingUnknown   Feeding = ""
	FeedingExclusive Feeding = "lactancia_exclusiva"
	FeedingMixed     Feeding = "mixta"
	FeedingFormula   Feeding = "formula"
)

func (f Feeding) Valid() bool {
	return f == FeedingUnknown || f == FeedingExclusive || f == FeedingMixed || f == FeedingFormula
}

// Newborn is one liveborn attached to a delivery record.
type Newborn struct {
	ID                 domain.NewbornID  `json:"id"`
	DeliveryID         domain.DeliveryID `json:"parto_asociado"`
	Sex                Sex               `json:"sexo"`
	WeightGrams        int               `json:"peso_grs"`
	HeightCm           float64           `json:"talla_cm"`
	Apgar1Min          int               `json:"apgar_1_min"`
	Apgar5Min          int               `json:"apgar_5_min"`
	OcularProphylaxis  bool              `json:"profilaxis_ocular"`
	HepatitisBVaccine  bool              `json:"vacuna_hepatitis_b"`
	CongenitalAnomaly  bool              `json:"anomalia_congenita"`
	Resuscitation      Resuscitation     `json:"reanimacion,omitempty"`
	FeedingAtDischarge Feeding           `json:"alimentacion_alta,omitempty"`
}

func NewNewborn(deliveryID domain.DeliveryID, sex Sex, weightGrams int, apgar1, apgar5 int) (*Newborn, error) {
	if deliveryID == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "newborn requires a delivery record")
	}
	if !sex.Valid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "newborn sex must be M, F or I")
	}
	if weightGrams <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "newborn weight must be positive")
	}
	if apgar1 < 0 || apgar1 > 10 || apgar5 < 0 || apgar5 > 10 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "apgar scores must be between 0 and 10")
	}
	return &Newborn{
		DeliveryID:  deliveryID,
		Sex:         sex,
		WeightGrams: weightGrams,
		Apgar1Min:   apgar1,
		Apgar5Min:   apgar5,
		// Both default to applied; the ward opts out explicitly.
		OcularProphylaxis: true,
		HepatitisBVaccine: true,
	}, nil
}

func (n *Newborn) SubjectType() audit.SubjectType { return audit.SubjectNewborn }
func (n *Newborn) SubjectID() int64               { return int64(n.ID) }
func (n *Newborn) String() string {
	return fmt.Sprintf("RN de parto %d (%dg)", n.DeliveryID, n.WeightGrams)
}

// DeathKind distinguishes the two mortality series in the REM report.
type DeathKind string

const (
	DeathMaternal DeathKind = "materna"
	DeathNeonatal DeathKind = "neonatal"
)

// Death is a maternal or neonatal death record. Timestamp is the moment of
// death; mortality buckets filter on it, never on the birth date.
type Death struct {
	ID        domain.DeathID `json:"id"`
	Kind      DeathKind      `json:"tipo"`
	PersonID  int64          `json:"sujeto_id"`
	Timestamp time.Time      `json:"timestamp"`
	Cause     string         `json:"causa,omitempty"`
}

func NewDeath(kind DeathKind, personID int64, timestamp time.Time) (*Death, error) {
	if kind != DeathMaternal && kind != DeathNeonatal {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "death kind must be materna or neonatal")
	}
	if personID == 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "death requires a subject")
	}
	if timestamp.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "death timestamp is required")
	}
	return &Death{Kind: kind, PersonID: personID, Timestamp: timestamp}, nil
}

func (d *Death) SubjectType() audit.SubjectType { return audit.SubjectDeath }
func (d *Death) SubjectID() int64               { return int64(d.ID) }
func (d *Death) String() string {
	return fmt.Sprintf("Defunción %s de sujeto %d el %s", d.Kind, d.PersonID, d.Timestamp.Format("2006-01-02"))
}
