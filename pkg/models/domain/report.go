package domain

import "time"

// SweepReport summarises a single retention pass over a region.
type SweepReport struct {
	RunID      string    `json:"run_id"`
	Region     string    `json:"region"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Listed     int       `json:"listed"`
	Matched    int       `json:"matched"`
	Deleted    int       `json:"deleted"`
	Failed     int       `json:"failed"`
	Retained   int       `json:"retained"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Record appends the outcome and updates the counters.
func (r *SweepReport) Record(o Outcome) {
	if o.Err != nil && o.Reason == "" {
		o.Reason = o.Err.Error()
	}
	r.Outcomes = append(r.Outcomes, o)

	switch {
	case o.Decision == DecisionDelete:
		r.Deleted++
	case o.Decision == DecisionDeleteFailed:
		r.Failed++
	case o.Decision.Retained():
		r.Retained++
	}
}

func (r *SweepReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
