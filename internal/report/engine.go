package report

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"maternidad/internal/audit"
	"maternidad/internal/clinical/models"
	"maternidad/internal/platform/metrics"
	"maternidad/pkg/domain"
	dErrors "maternidad/pkg/domain-errors"
	"maternidad/pkg/requestcontext"
)

// Reader provides range-filtered snapshots of the clinical record corpus.
// Each method is an independent query; the engine does not require the
// snapshots to be mutually consistent at the row level, so read-committed
// is enough.
type Reader interface {
	DeliveriesInRange(ctx context.Context, from, to time.Time) ([]DeliveryRow, error)
	NewbornsInRange(ctx context.Context, from, to time.Time) ([]NewbornRow, error)
	DeathsInRange(ctx context.Context, kind models.DeathKind, from, to time.Time) (int, error)
}

// Service computes REM reports on demand. Report generation is itself an
// audited action (best-effort, like every audit write).
type Service struct {
	reader           Reader
	recorder         *audit.Recorder
	metrics          *metrics.Metrics
	localNationality string
	tracer           trace.Tracer
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// WithLocalNationality overrides the nationality string counted as domestic.
func WithLocalNationality(nationality string) ServiceOption {
	return func(s *Service) { s.localNationality = nationality }
}

func NewService(reader Reader, recorder *audit.Recorder, opts ...ServiceOption) *Service {
	svc := &Service{
		reader:           reader,
		recorder:         recorder,
		localNationality: "Chilena",
		tracer:           otel.Tracer("maternidad/report"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Compute fetches the window's snapshots and folds them into the report.
// It tolerates an empty corpus (all counts zero) and never mutates state
// beyond the audit entry.
func (s *Service) Compute(ctx context.Context, period Period, actor domain.Actor) (*Report, error) {
	ctx, span := s.tracer.Start(ctx, "report.Compute",
		trace.WithAttributes(
			attribute.String("periodo.inicio", period.StartLabel),
			attribute.String("periodo.fin", period.EndLabel),
		))
	defer span.End()
	started := requestcontext.Now(ctx)

	var (
		deliveries     []DeliveryRow
		newborns       []NewbornRow
		maternalDeaths int
		neonatalDeaths int
	)

	// The four snapshot fetches are independent queries; run them in
	// parallel with shared cancellation.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		deliveries, err = s.reader.DeliveriesInRange(gctx, period.Start, period.End)
		return err
	})
	g.Go(func() error {
		var err error
		newborns, err = s.reader.NewbornsInRange(gctx, period.Start, period.End)
		return err
	})
	g.Go(func() error {
		var err error
		maternalDeaths, err = s.reader.DeathsInRange(gctx, models.DeathMaternal, period.Start, period.End)
		return err
	})
	g.Go(func() error {
		var err error
		neonatalDeaths, err = s.reader.DeathsInRange(gctx, models.DeathNeonatal, period.Start, period.End)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read clinical records")
	}

	rep := Build(period, deliveries, newborns, maternalDeaths, neonatalDeaths, s.localNationality)

	if s.metrics != nil {
		s.metrics.ObserveReportDuration(requestcontext.Now(ctx).Sub(started))
	}
	if s.recorder != nil {
		s.recorder.TryRecord(ctx, actor, audit.ActionReportGenerated,
			audit.Snapshot{Type: audit.SubjectReport, Description: "Reporte REM " + period.StartLabel + " al " + period.EndLabel}, "")
	}
	return rep, nil
}

// Build is the pure aggregation: fixed snapshots in, fixed bucket counts
// out. Exported separately from Compute so properties (bucket-sum
// consistency, mortality independence, determinism) are testable without a
// Reader.
func Build(period Period, deliveries []DeliveryRow, newborns []NewbornRow, maternalDeaths, neonatalDeaths int, localNationality string) *Report {
	rep := &Report{
		Period: period,
		Mortality: MortalitySection{
			Maternal: maternalDeaths,
			Neonatal: neonatalDeaths,
		},
	}

	reportYear := period.Year()
	for _, d := range deliveries {
		sec := &rep.Deliveries
		sec.Total++
		switch classifyMode(d.TypeLabel) {
		case modeSpontaneous:
			sec.VaginalSpontaneous++
		case modeInstrumental:
			sec.VaginalInstrumental++
		case modeElective:
			sec.ElectiveCesarean++
		case modeEmergency:
			sec.EmergencyCesarean++
		}
		if d.Oxytocin {
			sec.WithOxytocin++
		}
		if d.DelayedCordClamping {
			sec.DelayedCordClamping++
		}
		if d.SkinToSkin {
			sec.SkinToSkin++
		}
		switch {
		case d.GestationalWeeks < 37:
			sec.Preterm++
		case d.GestationalWeeks <= 41:
			sec.Term++
		default:
			sec.PostTerm++
		}

		// Year-subtraction age, no day-of-year correction (inherited REM rule).
		age := reportYear - d.MotherBirthDate.Year()
		switch {
		case age < 18:
			rep.Mothers.Adolescent++
		case age <= 34:
			rep.Mothers.Adult++
		default:
			rep.Mothers.AdvancedAge++
		}
		if d.MotherNationality != nil {
			if *d.MotherNationality == localNationality {
				rep.Mothers.Local++
			} else {
				rep.Mothers.Foreign++
			}
		}
		if d.MotherIndigenous {
			rep.Mothers.Indigenous++
		}
	}

	for _, n := range newborns {
		rep.Newborns.Total++
		countWeight(&rep.Newborns, n.WeightGrams)
		switch n.Sex {
		case models.SexMale:
			rep.Newborns.Male++
		case models.SexFemale:
			rep.Newborns.Female++
		case models.SexIndeterminate:
			rep.Newborns.Indeterminate++
		}
		if n.CongenitalAnomaly {
			rep.Newborns.CongenitalAnomalies++
		}

		care := &rep.ImmediateCare
		if n.OcularProphylaxis {
			care.OcularProphylaxis++
		}
		if n.HepatitisBVaccine {
			care.HepatitisBVaccine++
		}
		switch classifyMode(n.DeliveryTypeLabel) {
		case modeSpontaneous:
			care.ByDeliveryMode.VaginalSpontaneous++
		case modeInstrumental:
			care.ByDeliveryMode.VaginalInstrumental++
		case modeElective:
			care.ByDeliveryMode.ElectiveCesarean++
		case modeEmergency:
			care.ByDeliveryMode.EmergencyCesarean++
		}
		if n.Apgar1Min <= 3 {
			care.LowApgar1Min++
		}
		if n.Apgar5Min <= 6 {
			care.LowApgar5Min++
		}
		switch n.Resuscitation {
		case models.ResuscitationBasic:
			care.BasicResuscitation++
		case models.ResuscitationAdvanced:
			care.AdvancedResuscitation++
		}

		var breakdown *FeedingBreakdown
		switch n.FeedingAtDischarge {
		case models.FeedingExclusive:
			breakdown = &rep.Feeding.Exclusive
		case models.FeedingMixed:
			breakdown = &rep.Feeding.Mixed
		case models.FeedingFormula:
			breakdown = &rep.Feeding.Formula
		}
		if breakdown != nil {
			breakdown.Total++
			if n.MotherNationality != nil && *n.MotherNationality != localNationality {
				breakdown.Migrant++
			}
			if n.MotherIndigenous {
				breakdown.Indigenous++
			}
		}
	}

	return rep
}

type deliveryMode int

const (
	modeOther deliveryMode = iota
	modeSpontaneous
	modeInstrumental
	modeElective
	modeEmergency
)

// classifyMode categorizes a free-text delivery type label by
// case-insensitive substring match. The ward's catalog is free text and has
// drifted over the years; substring matching ("Instrumental" anywhere in
// the label) is the inherited behavior report totals depend on.
func classifyMode(label string) deliveryMode {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "instrumental"):
		return modeInstrumental
	case strings.Contains(l, "urgencia"):
		return modeEmergency
	case strings.Contains(l, "electiva"):
		return modeElective
	case strings.Contains(l, "espont"):
		return modeSpontaneous
	}
	return modeOther
}

func countWeight(sec *NewbornSection, grams int) {
	switch {
	case grams < 500:
		sec.Fine.Under500++
	case grams < 1000:
		sec.Fine.From500++
	case grams < 1500:
		sec.Fine.From1000++
	case grams < 2000:
		sec.Fine.From1500++
	case grams < 2500:
		sec.Fine.From2000++
	case grams < 3000:
		sec.Fine.From2500++
	case grams < 3500:
		sec.Fine.From3000++
	case grams < 4000:
		sec.Fine.From3500++
	default:
		sec.Fine.From4000++
	}
	switch {
	case grams < 1500:
		sec.Coarse.Under1500++
	case grams < 2500:
		sec.Coarse.From1500++
	case grams < 4000:
		sec.Coarse.From2500++
	default:
		sec.Coarse.From4000++
	}
}
