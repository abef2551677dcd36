package domain

import (
	"time"

	"github.com/google/uuid"
)

// StepStatus is the outcome of one reconciler step.
type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepPartial StepStatus = "partial"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// StepResult records the outcome of a reconciler step.
type StepResult struct {
	Name     string
	Status   StepStatus
	Duration time.Duration
	Err      error
}

// RunSummary is the structured result of a reconciler run.
// It is produced regardless of partial failures.
type RunSummary struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time

	RowsRead           int
	RowsParsed         int
	RowsDropped        int
	ParseErrors        int
	DuplicatesResolved int

	LastPriceDate time.Time
	StalenessDays int

	CrisisDays       int
	RecentCrisisDays int

	FetchCandidates int
	FetchSuccesses  int
	FetchFailures   int

	HeadlinesFetched  int
	HeadlinesFiltered int
	HeadlinesAdded    int
	NewsRows          int

	Steps  []StepResult
	Errors []error
}

// NewRunSummary creates a summary with a fresh run ID.
func NewRunSummary(startedAt time.Time) *RunSummary {
	return &RunSummary{
		RunID:     uuid.New(),
		StartedAt: startedAt,
	}
}

// AddStep appends a step result and records its error.
func (s *RunSummary) AddStep(r StepResult) {
	s.Steps = append(s.Steps, r)
	if r.Err != nil {
		s.Errors = append(s.Errors, r.Err)
	}
}

// Failed reports whether any fatal error was recorded.
func (s *RunSummary) Failed() bool {
	for _, err := range s.Errors {
		if IsFatal(err) {
			return true
		}
	}
	return false
}

// ExitCode returns the process exit status for the run.
func (s *RunSummary) ExitCode() int {
	if s.Failed() {
		return 1
	}
	return 0
}
