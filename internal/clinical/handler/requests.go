package handler

import (
	"time"

	"maternidad/internal/clinical/models"
	"maternidad/pkg/domain"
	dErrors "maternidad/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

type motherRequest struct {
	RUT                 string  `json:"rut"`
	Name                string  `json:"nombre"`
	BirthDate           string  `json:"fecha_nacimiento"`
	Address             string  `json:"direccion"`
	Phone               string  `json:"telefono"`
	Nationality         *string `json:"nacionalidad"`
	IndigenousCommunity bool    `json:"pueblo_originario"`
}

func (r motherRequest) ToModel() (*models.Mother, error) {
	birthDate, err := time.ParseInLocation(dateLayout, r.BirthDate, time.UTC)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "fecha_nacimiento must be YYYY-MM-DD")
	}
	m, err := models.NewMother(r.RUT, r.Name, birthDate)
	if err != nil {
		return nil, err
	}
	m.Address = r.Address
	m.Phone = r.Phone
	m.Nationality = r.Nationality
	m.IndigenousCommunity = r.IndigenousCommunity
	return m, nil
}

type deliveryRequest struct {
	MotherID            int64     `json:"madre"`
	Date                time.Time `json:"fecha_parto"`
	GestationalWeeks    int       `json:"edad_gestacional_semanas"`
	AttendedBy          string    `json:"personal_atiende"`
	DeliveryType        string    `json:"tipo_parto"`
	Analgesia           string    `json:"tipo_analgesia"`
	Complications       string    `json:"complicaciones_texto"`
	Oxytocin            bool      `json:"uso_oxitocina"`
	DelayedCordClamping bool      `json:"ligadura_tardia_cordon"`
	SkinToSkin          bool      `json:"contacto_piel_a_piel"`
}

func (r deliveryRequest) ToModel() (*models.Delivery, error) {
	d, err := models.NewDelivery(domain.MotherID(r.MotherID), r.Date, r.GestationalWeeks)
	if err != nil {
		return nil, err
	}
	d.AttendedBy = r.AttendedBy
	d.DeliveryType = r.DeliveryType
	d.Analgesia = r.Analgesia
	d.Complications = r.Complications
	d.Oxytocin = r.Oxytocin
	d.DelayedCordClamping = r.DelayedCordClamping
	d.SkinToSkin = r.SkinToSkin
	return d, nil
}

type newbornRequest struct {
	DeliveryID         int64   `json:"parto_asociado"`
	Sex                string  `json:"sexo"`
	WeightGrams        int     `json:"peso_grs"`
	HeightCm           float64 `json:"talla_cm"`
	Apgar1Min          int     `json:"apgar_1_min"`
	Apgar5Min          int     `json:"apgar_5_min"`
	OcularProphylaxis  *bool   `json:"profilaxis_ocular"`
	HepatitisBVaccine  *bool   `json:"vacuna_hepatitis_b"`
	CongenitalAnomaly  bool    `json:"anomalia_congenita"`
	Resuscitation      string  `json:"reanimacion"`
	FeedingAtDischarge string  `json:"alimentacion_alta"`
}

func (r newbornRequest) ToModel() (*models.Newborn, error) {
	n, err := models.NewNewborn(domain.DeliveryID(r.DeliveryID), models.Sex(r.Sex), r.WeightGrams, r.Apgar1Min, r.Apgar5Min)
	if err != nil {
		return nil, err
	}
	n.HeightCm = r.HeightCm
	// Prophylaxis flags default to applied unless the body says otherwise.
	if r.OcularProphylaxis != nil {
		n.OcularProphylaxis = *r.OcularProphylaxis
	}
	if r.HepatitisBVaccine != nil {
		n.HepatitisBVaccine = *r.HepatitisBVaccine
	}
	n.CongenitalAnomaly = r.CongenitalAnomaly
	resuscitation := models.Resuscitation(r.Resuscitation)
	if !resuscitation.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "reanimacion must be basica or avanzada")
	}
	n.Resuscitation = resuscitation
	feeding := models.Feeding(r.FeedingAtDischarge)
	if !feeding.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "alimentacion_alta must be lactancia_exclusiva, mixta or formula")
	}
	n.FeedingAtDischarge = feeding
	return n, nil
}

type deathRequest struct {
	Kind      string    `json:"tipo"`
	PersonID  int64     `json:"sujeto_id"`
	Timestamp time.Time `json:"timestamp"`
	Cause     string    `json:"causa"`
}

func (r deathRequest) ToModel() (*models.Death, error) {
	d, err := models.NewDeath(models.DeathKind(r.Kind), r.PersonID, r.Timestamp)
	if err != nil {
		return nil, err
	}
	d.Cause = r.Cause
	return d, nil
}
