package domain

import "time"

type Snapshot struct {
	Identifier         string            // prod-db-2021-04-01-10-15
	InstanceIdentifier string            // prod-db
	ARN                string            // arn:aws:rds:eu-west-1:123456789012:snapshot:prod-db-2021-04-01-10-15
	Engine             string            // postgres
	Type               string            // manual
	Status             string            // available
	CreatedAt          *time.Time        // nil when neither the identifier nor the API yields a timestamp
	Tags               map[string]string // CopiedBy -> Snapshot Tool for RDS
}

type Decision string

const (
	DecisionRetainAnchor   Decision = "retain-anchor"
	DecisionRetainYoung    Decision = "retain-young"
	DecisionRetainUntagged Decision = "retain-untagged"
	DecisionDelete         Decision = "delete"
	DecisionDeleteFailed   Decision = "delete-failed"
	DecisionDryRun         Decision = "dry-run"
)

// Retained reports whether the decision leaves the snapshot in place on purpose.
func (d Decision) Retained() bool {
	switch d {
	case DecisionRetainAnchor, DecisionRetainYoung, DecisionRetainUntagged:
		return true
	}
	return false
}

// Outcome is the per-snapshot result of a sweep. Err is set only for
// DecisionDeleteFailed.
type Outcome struct {
	Snapshot string   `json:"snapshot"`
	Decision Decision `json:"decision"`
	AgeDays  float64  `json:"age_days"`
	Err      error    `json:"-"`
	Reason   string   `json:"reason,omitempty"`
}
