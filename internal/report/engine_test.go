package report_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"maternidad/internal/audit"
	auditmemory "maternidad/internal/audit/store/memory"
	"maternidad/internal/clinical/models"
	clinicalmemory "maternidad/internal/clinical/store/memory"
	"maternidad/internal/report"
	"maternidad/pkg/domain"
)

type EngineSuite struct {
	suite.Suite
	ctx   context.Context
	actor domain.Actor
}

func (s *EngineSuite) SetupTest() {
	s.ctx = context.Background()
	s.actor = domain.Actor{
		ID:   domain.UserID(uuid.New()),
		Name: "Sup. Fuentes",
		Role: domain.RoleSupervisor,
	}
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) period(start, end string) report.Period {
	p, err := report.ParsePeriod(start, end)
	s.Require().NoError(err)
	return p
}

func chilena() *string {
	n := "Chilena"
	return &n
}

func haitiana() *string {
	n := "Haitiana"
	return &n
}

// corpus builds a populated clinical store: three January deliveries (two
// spontaneous vaginal, one emergency cesarean), newborns, and deaths.
func (s *EngineSuite) corpus() *clinicalmemory.Store {
	store := clinicalmemory.New()
	ctx := context.Background()

	mothers := []*models.Mother{
		{RUT: "10.000.001-1", Name: "Ana", BirthDate: time.Date(2008, 7, 1, 0, 0, 0, 0, time.UTC), Nationality: chilena()},
		{RUT: "10.000.002-2", Name: "Berta", BirthDate: time.Date(1995, 2, 1, 0, 0, 0, 0, time.UTC), Nationality: haitiana(), IndigenousCommunity: true},
		{RUT: "10.000.003-3", Name: "Carla", BirthDate: time.Date(1985, 11, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, m := range mothers {
		_, err := store.CreateMother(ctx, m)
		s.Require().NoError(err)
	}

	deliveries := []*models.Delivery{
		{
			MotherID: mothers[0].ID, Date: time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC),
			GestationalWeeks: 39, DeliveryType: "Parto Vaginal Espontáneo",
			Oxytocin: true, SkinToSkin: true,
		},
		{
			MotherID: mothers[1].ID, Date: time.Date(2024, 1, 12, 3, 30, 0, 0, time.UTC),
			GestationalWeeks: 35, DeliveryType: "Parto Vaginal Espontáneo",
			DelayedCordClamping: true,
		},
		{
			MotherID: mothers[2].ID, Date: time.Date(2024, 1, 20, 22, 15, 0, 0, time.UTC),
			GestationalWeeks: 42, DeliveryType: "Cesárea de Urgencia",
		},
	}
	for _, d := range deliveries {
		_, err := store.CreateDelivery(ctx, d)
		s.Require().NoError(err)
	}

	newborns := []*models.Newborn{
		{
			DeliveryID: deliveries[0].ID, Sex: models.SexMale, WeightGrams: 3400,
			Apgar1Min: 9, Apgar5Min: 10, OcularProphylaxis: true, HepatitisBVaccine: true,
			FeedingAtDischarge: models.FeedingExclusive,
		},
		{
			DeliveryID: deliveries[1].ID, Sex: models.SexFemale, WeightGrams: 2100,
			Apgar1Min: 3, Apgar5Min: 6, OcularProphylaxis: true, HepatitisBVaccine: false,
			Resuscitation: models.ResuscitationBasic, FeedingAtDischarge: models.FeedingMixed,
		},
		{
			DeliveryID: deliveries[2].ID, Sex: models.SexFemale, WeightGrams: 4150,
			Apgar1Min: 8, Apgar5Min: 9, OcularProphylaxis: true, HepatitisBVaccine: true,
			CongenitalAnomaly: true, Resuscitation: models.ResuscitationAdvanced,
			FeedingAtDischarge: models.FeedingExclusive,
		},
	}
	for _, n := range newborns {
		_, err := store.CreateNewborn(ctx, n)
		s.Require().NoError(err)
	}

	deaths := []*models.Death{
		{Kind: models.DeathMaternal, PersonID: int64(mothers[2].ID), Timestamp: time.Date(2024, 1, 21, 4, 0, 0, 0, time.UTC)},
		{Kind: models.DeathNeonatal, PersonID: int64(newborns[1].ID), Timestamp: time.Date(2024, 2, 2, 9, 0, 0, 0, time.UTC)},
	}
	for _, d := range deaths {
		_, err := store.CreateDeath(ctx, d)
		s.Require().NoError(err)
	}

	return store
}

func (s *EngineSuite) compute(store *clinicalmemory.Store, p report.Period) *report.Report {
	svc := report.NewService(store, nil)
	rep, err := svc.Compute(s.ctx, p, s.actor)
	s.Require().NoError(err)
	return rep
}

// TestJanuaryScenario checks the fixed three-delivery scenario end to end.
func (s *EngineSuite) TestJanuaryScenario() {
	store := s.corpus()
	rep := s.compute(store, s.period("2024-01-01", "2024-01-31"))

	s.Run("delivery section", func() {
		s.Equal(3, rep.Deliveries.Total)
		s.Equal(2, rep.Deliveries.VaginalSpontaneous)
		s.Equal(1, rep.Deliveries.EmergencyCesarean)
		s.Equal(0, rep.Deliveries.VaginalInstrumental)
		s.Equal(0, rep.Deliveries.ElectiveCesarean)
		s.Equal(1, rep.Deliveries.WithOxytocin)
		s.Equal(1, rep.Deliveries.DelayedCordClamping)
		s.Equal(1, rep.Deliveries.SkinToSkin)
		s.Equal(1, rep.Deliveries.Preterm)
		s.Equal(1, rep.Deliveries.Term)
		s.Equal(1, rep.Deliveries.PostTerm)
	})

	s.Run("maternal demographics use year subtraction", func() {
		// 2024 - 2008 = 16, 2024 - 1995 = 29, 2024 - 1985 = 39.
		s.Equal(1, rep.Mothers.Adolescent)
		s.Equal(1, rep.Mothers.Adult)
		s.Equal(1, rep.Mothers.AdvancedAge)
		// Null nationality counts as neither local nor foreign.
		s.Equal(1, rep.Mothers.Local)
		s.Equal(1, rep.Mothers.Foreign)
		s.Equal(1, rep.Mothers.Indigenous)
	})

	s.Run("newborn section", func() {
		s.Equal(3, rep.Newborns.Total)
		s.Equal(1, rep.Newborns.Male)
		s.Equal(2, rep.Newborns.Female)
		s.Equal(1, rep.Newborns.CongenitalAnomalies)
		s.Equal(1, rep.Newborns.Coarse.From1500)
		s.Equal(1, rep.Newborns.Coarse.From2500)
		s.Equal(1, rep.Newborns.Coarse.From4000)
	})

	s.Run("immediate care section", func() {
		s.Equal(3, rep.ImmediateCare.OcularProphylaxis)
		s.Equal(2, rep.ImmediateCare.HepatitisBVaccine)
		s.Equal(2, rep.ImmediateCare.ByDeliveryMode.VaginalSpontaneous)
		s.Equal(1, rep.ImmediateCare.ByDeliveryMode.EmergencyCesarean)
		s.Equal(1, rep.ImmediateCare.LowApgar1Min)
		s.Equal(1, rep.ImmediateCare.LowApgar5Min)
		s.Equal(1, rep.ImmediateCare.BasicResuscitation)
		s.Equal(1, rep.ImmediateCare.AdvancedResuscitation)
	})

	s.Run("feeding section crosses subpopulations", func() {
		s.Equal(2, rep.Feeding.Exclusive.Total)
		s.Equal(0, rep.Feeding.Exclusive.Migrant)
		s.Equal(0, rep.Feeding.Exclusive.Indigenous)
		s.Equal(1, rep.Feeding.Mixed.Total)
		s.Equal(1, rep.Feeding.Mixed.Migrant)
		s.Equal(1, rep.Feeding.Mixed.Indigenous)
		s.Equal(0, rep.Feeding.Formula.Total)
	})

	s.Run("mortality keyed on death timestamp", func() {
		s.Equal(1, rep.Mortality.Maternal)
		s.Equal(0, rep.Mortality.Neonatal) // neonatal death is in February
	})
}

// TestEmptyWindow verifies a zero-record window yields all zeros, no error.
func (s *EngineSuite) TestEmptyWindow() {
	store := s.corpus()
	rep := s.compute(store, s.period("2024-03-01", "2024-03-31"))

	s.Equal(0, rep.Deliveries.Total)
	s.Equal(0, rep.Newborns.Total)
	s.Equal(0, rep.Mothers.Adult)
	s.Equal(0, rep.Mortality.Maternal)
	s.Equal(0, rep.Mortality.Neonatal)
}

// TestEmptyCorpus verifies the engine tolerates a store with no rows at all.
func (s *EngineSuite) TestEmptyCorpus() {
	rep := s.compute(clinicalmemory.New(), s.period("2024-01-01", "2024-12-31"))
	s.Equal(0, rep.Deliveries.Total)
	s.Equal(0, rep.Newborns.Total)
}

// TestMortalityIndependence verifies changing the birth-date window without
// changing the death window does not change mortality counts.
func (s *EngineSuite) TestMortalityIndependence() {
	store := s.corpus()

	february := s.compute(store, s.period("2024-02-01", "2024-02-28"))
	s.Equal(0, february.Deliveries.Total)
	s.Equal(0, february.Mortality.Maternal)
	s.Equal(1, february.Mortality.Neonatal) // despite zero February births

	wholeRange := s.compute(store, s.period("2024-01-01", "2024-02-28"))
	s.Equal(1, wholeRange.Mortality.Maternal)
	s.Equal(1, wholeRange.Mortality.Neonatal)
}

// TestCoarseEqualsFineSum verifies the bucket-sum property across a spread
// of weights.
func (s *EngineSuite) TestCoarseEqualsFineSum() {
	weights := []int{450, 750, 1200, 1700, 2300, 2700, 3200, 3700, 4100, 4999, 1499, 2499}
	rows := make([]report.NewbornRow, 0, len(weights))
	for _, w := range weights {
		rows = append(rows, report.NewbornRow{Sex: models.SexMale, WeightGrams: w})
	}

	rep := report.Build(s.period("2024-01-01", "2024-01-31"), nil, rows, 0, 0, "Chilena")

	fine := rep.Newborns.Fine
	coarse := rep.Newborns.Coarse
	s.Equal(coarse.Under1500, fine.Under500+fine.From500+fine.From1000)
	s.Equal(coarse.From1500, fine.From1500+fine.From2000)
	s.Equal(coarse.From2500, fine.From2500+fine.From3000+fine.From3500)
	s.Equal(coarse.From4000, fine.From4000)
	s.Equal(len(weights), coarse.Under1500+coarse.From1500+coarse.From2500+coarse.From4000)
	s.Equal(len(weights), rep.Newborns.Total)
}

// TestDeterminism verifies identical inputs produce identical output.
func (s *EngineSuite) TestDeterminism() {
	store := s.corpus()
	p := s.period("2024-01-01", "2024-01-31")
	first := s.compute(store, p)
	second := s.compute(store, p)
	s.Equal(first, second)
}

// TestModeClassification verifies the substring rule against label drift.
func (s *EngineSuite) TestModeClassification() {
	cases := []struct {
		label   string
		section func(r *report.Report) int
	}{
		{"Parto Vaginal Instrumental (Fórceps/Vacuum)", func(r *report.Report) int { return r.Deliveries.VaginalInstrumental }},
		{"parto instrumental con ventosa", func(r *report.Report) int { return r.Deliveries.VaginalInstrumental }},
		{"Cesárea de Urgencia", func(r *report.Report) int { return r.Deliveries.EmergencyCesarean }},
		{"CESÁREA ELECTIVA PROGRAMADA", func(r *report.Report) int { return r.Deliveries.ElectiveCesarean }},
		{"Parto Vaginal Espontáneo", func(r *report.Report) int { return r.Deliveries.VaginalSpontaneous }},
	}

	for _, tc := range cases {
		s.Run(tc.label, func() {
			rows := []report.DeliveryRow{{
				Date:             time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
				TypeLabel:        tc.label,
				GestationalWeeks: 39,
				MotherBirthDate:  time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
			}}
			rep := report.Build(s.period("2024-01-01", "2024-01-31"), rows, nil, 0, 0, "Chilena")
			s.Equal(1, tc.section(rep))
			s.Equal(1, rep.Deliveries.Total)
		})
	}

	s.Run("unmatched label counts only toward the total", func() {
		rows := []report.DeliveryRow{{
			Date:             time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
			TypeLabel:        "Otro",
			GestationalWeeks: 39,
			MotherBirthDate:  time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		}}
		rep := report.Build(s.period("2024-01-01", "2024-01-31"), rows, nil, 0, 0, "Chilena")
		s.Equal(1, rep.Deliveries.Total)
		s.Equal(0, rep.Deliveries.VaginalSpontaneous+rep.Deliveries.VaginalInstrumental+
			rep.Deliveries.ElectiveCesarean+rep.Deliveries.EmergencyCesarean)
	})
}

// TestAuditEntry verifies report generation is itself audited, best-effort.
func (s *EngineSuite) TestAuditEntry() {
	auditStore := auditmemory.New()
	recorder := audit.NewRecorder(auditStore, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := report.NewService(s.corpus(), recorder)

	_, err := svc.Compute(s.ctx, s.period("2024-01-01", "2024-01-31"), s.actor)
	s.Require().NoError(err)

	entries, err := auditStore.List(s.ctx, audit.Filter{SubjectType: audit.SubjectReport})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(audit.ActionReportGenerated, entries[0].Action)
	s.Contains(entries[0].Details, "2024-01-01")
	s.Contains(entries[0].Details, "2024-01-31")
}
