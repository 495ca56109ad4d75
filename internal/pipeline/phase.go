package pipeline

import "time"

// Phase names one pipeline stage. Phases execute strictly in declaration
// order within a run.
type Phase string

const (
	PhaseParsed          Phase = "parsed"
	PhaseImagesExtracted Phase = "images-extracted"
	PhaseSegmented       Phase = "segmented"
	PhaseScripted        Phase = "scripted"
	PhaseRendered        Phase = "rendered"
)

// PhaseStatus records how a phase concluded for one run.
type PhaseStatus string

const (
	StatusHit      PhaseStatus = "hit"
	StatusExecuted PhaseStatus = "executed"
	StatusSkipped  PhaseStatus = "skipped"
	StatusFailed   PhaseStatus = "failed"
)

// PhaseOutcome is one row of a run report.
type PhaseOutcome struct {
	Phase       Phase
	Status      PhaseStatus
	Fingerprint string
	Error       string
	Elapsed     time.Duration
}

// RunReport summarizes one pipeline invocation. It lives only for the run;
// nothing here is persisted beyond run-scoped logs.
type RunReport struct {
	DocumentID     string
	OutputPath     string
	FailedSegments []int
	Phases         []PhaseOutcome
}

// Failed returns the phase that failed, if any.
func (r *RunReport) Failed() (Phase, bool) {
	for _, outcome := range r.Phases {
		if outcome.Status == StatusFailed {
			return outcome.Phase, true
		}
	}
	return "", false
}

func (r *RunReport) record(outcome PhaseOutcome) {
	r.Phases = append(r.Phases, outcome)
}
