package services

import (
	"time"

	apperrors "kbpulse/internal/errors"
	"kbpulse/internal/operations"
	"kbpulse/internal/taxonomy"
	"kbpulse/pkg/contracts/domain"
)

// Snapshot is an immutable view of one successful pipeline run
type Snapshot struct {
	RunID           string
	RefreshedAt     time.Time
	Result          *operations.Result
	Classifications map[string]*domain.RegionClassification
}

// CategoryStatus summarizes one category of the snapshot
type CategoryStatus struct {
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Sheet     string    `json:"sheet,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
	Message   string    `json:"message,omitempty"`
	Regions   int       `json:"regions"`
	Rows      int       `json:"rows"`
	DateFrom  time.Time `json:"date_from,omitempty"`
	DateTo    time.Time `json:"date_to,omitempty"`
}

const (
	CategoryStatusOK    = "ok"
	CategoryStatusError = "error"
)

func newSnapshot(result *operations.Result, classifier *taxonomy.Classifier, at time.Time) *Snapshot {
	s := &Snapshot{
		RunID:           result.RunID,
		RefreshedAt:     at,
		Result:          result,
		Classifications: make(map[string]*domain.RegionClassification, len(result.Tables)),
	}
	for name, table := range result.Tables {
		s.Classifications[name] = classifier.Classify(table.Regions)
	}
	return s
}

// Age is the time since the snapshot was taken
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.RefreshedAt)
}

// Statuses lists every category of the run in name order
func (s *Snapshot) Statuses() []CategoryStatus {
	names := s.Result.Categories()

	out := make([]CategoryStatus, 0, len(names))
	for _, name := range names {
		st := CategoryStatus{Name: name, Status: CategoryStatusOK}
		if rep, ok := s.Result.Reports[name]; ok {
			st.Sheet = rep.Sheet
		}

		table, err := s.Result.Table(name)
		if err != nil {
			st.Status = CategoryStatusError
			st.ErrorKind = string(apperrors.KindOf(err))
			st.Message = err.Error()
			out = append(out, st)
			continue
		}

		st.Regions = len(table.Regions)
		st.Rows = len(table.Records)
		st.DateFrom, st.DateTo = table.DateRange()
		out = append(out, st)
	}
	return out
}
