package models

import "time"

// WorkspaceOutcome is the result of one workspace pass inside a run
type WorkspaceOutcome struct {
	WorkspaceID string
	Plan        *MigrationPlan
	Err         error
	Skipped     bool
	Duration    time.Duration
}

// RunReport summarizes a multi-workspace run
type RunReport struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []WorkspaceOutcome
}

// Failed returns the outcomes that ended with an error
func (r *RunReport) Failed() []WorkspaceOutcome {
	var failed []WorkspaceOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Succeeded returns the number of workspaces reconciled without error
func (r *RunReport) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil && !o.Skipped {
			n++
		}
	}
	return n
}
