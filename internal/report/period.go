package report

import (
	"time"

	dErrors "maternidad/pkg/domain-errors"
)

const dateLayout = "2006-01-02"

// Period is a validated, normalized report window: the start date at
// 00:00:00 through the end date at 23:59:59, in UTC. The engine assumes a
// Period was produced here and performs no further date validation.
type Period struct {
	Start time.Time `json:"-"`
	End   time.Time `json:"-"`
	// Labels keep the caller's original calendar dates for the report header.
	StartLabel string `json:"inicio"`
	EndLabel   string `json:"fin"`
}

// Year is the calendar year maternal ages are computed against.
func (p Period) Year() int { return p.Start.Year() }

// Contains reports whether t falls inside the closed window.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

// ParsePeriod validates the supplied calendar dates and normalizes them into
// a closed [start 00:00:00, end 23:59:59] window. It fails fast, before any
// query executes, on unparsable input or an end date before the start date.
func ParsePeriod(startStr, endStr string) (Period, error) {
	if startStr == "" || endStr == "" {
		return Period{}, dErrors.New(dErrors.CodeValidation, "fecha_inicio and fecha_fin are required (YYYY-MM-DD)")
	}
	start, err := time.ParseInLocation(dateLayout, startStr, time.UTC)
	if err != nil {
		return Period{}, dErrors.New(dErrors.CodeValidation, "invalid fecha_inicio, use YYYY-MM-DD")
	}
	end, err := time.ParseInLocation(dateLayout, endStr, time.UTC)
	if err != nil {
		return Period{}, dErrors.New(dErrors.CodeValidation, "invalid fecha_fin, use YYYY-MM-DD")
	}
	if end.Before(start) {
		return Period{}, dErrors.New(dErrors.CodeValidation, "fecha_fin must not precede fecha_inicio")
	}
	return Period{
		Start:      start,
		End:        end.Add(24*time.Hour - time.Second),
		StartLabel: startStr,
		EndLabel:   endStr,
	}, nil
}
