// Package report computes the REM BS22 birth/newborn statistical report: a
// deterministic set of count buckets over the clinical record corpus for a
// validated date window. Reports are derived values, never persisted;
// identical inputs over an unchanged corpus yield identical output.
package report

import (
	"time"

	"maternidad/internal/clinical/models"
)

// Report is the full REM structure handed read-only to consumers
// (PDF/Excel renderers, the JSON API).
type Report struct {
	Period        Period           `json:"rango_fechas"`
	Deliveries    DeliverySection  `json:"seccion_a_partos"`
	Mothers       MotherSection    `json:"seccion_b_madres"`
	Newborns      NewbornSection   `json:"seccion_d1_pesos"`
	ImmediateCare CareSection      `json:"seccion_d2_atencion_inmediata"`
	Feeding       FeedingSection   `json:"seccion_e_alimentacion_alta"`
	Mortality     MortalitySection `json:"seccion_f_mortalidad"`
}

// ModeCounts breaks deliveries down by the four REM delivery-mode
// categories. Categorization is a case-insensitive substring match on the
// free-text type label, so catalog drift ("Parto Vaginal Instrumental
// (Fórceps)" vs "(Vacuum)") still counts. A label matching no category
// contributes only to totals.
type ModeCounts struct {
	VaginalSpontaneous  int `json:"vaginal_espontaneo"`
	VaginalInstrumental int `json:"vaginal_instrumental"`
	ElectiveCesarean    int `json:"cesarea_electiva"`
	EmergencyCesarean   int `json:"cesarea_urgencia"`
}

// DeliverySection characterizes deliveries whose event timestamp falls in
// the window.
type DeliverySection struct {
	Total               int `json:"total_partos"`
	VaginalSpontaneous  int `json:"vaginal_espontaneo"`
	VaginalInstrumental int `json:"vaginal_instrumental"`
	ElectiveCesarean    int `json:"cesarea_electiva"`
	EmergencyCesarean   int `json:"cesarea_urgencia"`
	WithOxytocin        int `json:"con_oxitocina"`
	DelayedCordClamping int `json:"ligadura_tardia"`
	SkinToSkin          int `json:"contacto_piel_a_piel"`
	Preterm             int `json:"pretermino"`
	Term                int `json:"termino"`
	PostTerm            int `json:"postermino"`
}

// MotherSection classifies the delivering mothers at report-generation
// time. Age is report-year minus birth-year, year component only; this is
// the inherited regulatory simplification, not a bug.
type MotherSection struct {
	Adolescent  int `json:"menores_18"`
	Adult       int `json:"de_18_a_34"`
	AdvancedAge int `json:"de_35_o_mas"`
	Local       int `json:"nacionalidad_local"`
	Foreign     int `json:"nacionalidad_extranjera"`
	Indigenous  int `json:"pueblos_originarios"`
}

// CoarseWeights are the clinical weight buckets.
type CoarseWeights struct {
	Under1500 int `json:"menos_1500g"`
	From1500  int `json:"de_1500_a_2499g"`
	From2500  int `json:"de_2500_a_3999g"`
	From4000  int `json:"de_4000g_o_mas"`
}

// FineWeights are the regulatory 500g-increment buckets. Each coarse bucket
// equals the sum of the fine buckets it spans.
type FineWeights struct {
	Under500 int `json:"menos_500g"`
	From500  int `json:"de_500_a_999g"`
	From1000 int `json:"de_1000_a_1499g"`
	From1500 int `json:"de_1500_a_1999g"`
	From2000 int `json:"de_2000_a_2499g"`
	From2500 int `json:"de_2500_a_2999g"`
	From3000 int `json:"de_3000_a_3499g"`
	From3500 int `json:"de_3500_a_3999g"`
	From4000 int `json:"de_4000g_o_mas"`
}

// NewbornSection covers weight, sex and anomaly counts for newborns whose
// parent delivery falls in the window.
type NewbornSection struct {
	Total               int           `json:"total_recien_nacidos"`
	Coarse              CoarseWeights `json:"rangos_clinicos"`
	Fine                FineWeights   `json:"rangos_rem"`
	Male                int           `json:"sexo_masculino"`
	Female              int           `json:"sexo_femenino"`
	Indeterminate       int           `json:"sexo_indeterminado"`
	CongenitalAnomalies int           `json:"anomalias_congenitas"`
}

// CareSection covers immediate newborn care. ByDeliveryMode applies the
// same substring rule as DeliverySection, seen through the newborn's parent
// delivery record.
type CareSection struct {
	OcularProphylaxis     int        `json:"profilaxis_ocular"`
	HepatitisBVaccine     int        `json:"vacuna_hepatitis_b"`
	ByDeliveryMode        ModeCounts `json:"por_tipo_parto"`
	LowApgar1Min          int        `json:"apgar_1min_bajo"`
	LowApgar5Min          int        `json:"apgar_5min_bajo"`
	BasicResuscitation    int        `json:"reanimacion_basica"`
	AdvancedResuscitation int        `json:"reanimacion_avanzada"`
}

// FeedingBreakdown is one feeding-type count crossed with the two
// subpopulation filters.
type FeedingBreakdown struct {
	Total      int `json:"total"`
	Migrant    int `json:"madres_migrantes"`
	Indigenous int `json:"pueblos_originarios"`
}

// FeedingSection covers feeding at discharge.
type FeedingSection struct {
	Exclusive FeedingBreakdown `json:"lactancia_exclusiva"`
	Mixed     FeedingBreakdown `json:"mixta"`
	Formula   FeedingBreakdown `json:"formula"`
}

// MortalitySection counts deaths whose death timestamp falls in the window,
// independent of any birth-date filtering.
type MortalitySection struct {
	Maternal int `json:"muertes_maternas"`
	Neonatal int `json:"muertes_neonatales"`
}

// DeliveryRow is the snapshot of one in-window delivery plus the maternal
// fields the demographic buckets need.
type DeliveryRow struct {
	Date                time.Time
	TypeLabel           string
	GestationalWeeks    int
	Oxytocin            bool
	DelayedCordClamping bool
	SkinToSkin          bool
	MotherBirthDate     time.Time
	MotherNationality   *string
	MotherIndigenous    bool
}

// NewbornRow is the snapshot of one in-window newborn plus its parent
// delivery's type label and maternal subpopulation fields.
type NewbornRow struct {
	Sex                models.Sex
	WeightGrams        int
	Apgar1Min          int
	Apgar5Min          int
	OcularProphylaxis  bool
	HepatitisBVaccine  bool
	CongenitalAnomaly  bool
	Resuscitation      models.Resuscitation
	FeedingAtDischarge models.Feeding
	DeliveryTypeLabel  string
	MotherNationality  *string
	MotherIndigenous   bool
}
