package retention

import (
	"fmt"
	"time"

	"github.com/de-tools/snapshot-sweeper/pkg/models/domain"
)

const (
	// RetentionMonths is how long the Monday anchors are kept.
	RetentionMonths = 1

	DefaultCopiedTagKey   = "CopiedBy"
	DefaultCopiedTagValue = "Snapshot Tool for RDS"

	SnapshotTypeManual = "manual"
)

var supportedEngines = map[string]struct{}{
	"mariadb":           {},
	"mysql":             {},
	"postgres":          {},
	"aurora-mysql":      {},
	"aurora-postgresql": {},
	"oracle-ee":         {},
	"oracle-se2":        {},
	"oracle-se1":        {},
	"oracle-se":         {},
	"sqlserver-ee":      {},
	"sqlserver-se":      {},
	"sqlserver-ex":      {},
	"sqlserver-web":     {},
}

// Policy is the immutable retention configuration of a sweep.
type Policy struct {
	Matcher         Matcher
	RetentionDays   int
	RetentionMonths int
	CopiedTagKey    string
	CopiedTagValue  string
}

func NewPolicy(pattern string, retentionDays int) (Policy, error) {
	if retentionDays <= 0 {
		return Policy{}, fmt.Errorf("retention days must be positive, got %d", retentionDays)
	}

	matcher, err := NewMatcher(pattern)
	if err != nil {
		return Policy{}, err
	}

	return Policy{
		Matcher:         matcher,
		RetentionDays:   retentionDays,
		RetentionMonths: RetentionMonths,
		CopiedTagKey:    DefaultCopiedTagKey,
		CopiedTagValue:  DefaultCopiedTagValue,
	}, nil
}

// WithCopiedTag overrides the marker tag. Empty values keep the current ones.
func (p Policy) WithCopiedTag(key, value string) Policy {
	if key != "" {
		p.CopiedTagKey = key
	}
	if value != "" {
		p.CopiedTagValue = value
	}
	return p
}

func SupportedEngine(engine string) bool {
	_, ok := supportedEngines[engine]
	return ok
}

// FilterByPattern keeps the manual snapshots of supported engines whose
// identifier the matcher accepts. The first snapshot wins on duplicate
// identifiers.
func FilterByPattern(snapshots []domain.Snapshot, matcher Matcher) map[string]domain.Snapshot {
	filtered := make(map[string]domain.Snapshot)
	for _, s := range snapshots {
		if s.Type != SnapshotTypeManual || !SupportedEngine(s.Engine) {
			continue
		}
		if !matcher.Match(s.Identifier) {
			continue
		}
		if _, seen := filtered[s.Identifier]; seen {
			continue
		}
		filtered[s.Identifier] = s
	}
	return filtered
}

// IsCopied reports whether the tag set carries the copied marker.
func IsCopied(tags map[string]string, key, value string) bool {
	v, ok := tags[key]
	return ok && v == value
}

// AgeDays returns the fractional number of days between created and now.
func AgeDays(now, created time.Time) float64 {
	return now.Sub(created).Hours() / 24
}

// Decide returns the retention decision for a copied snapshot with a known
// creation time. Anchors are retained regardless of age.
func Decide(created, now time.Time, retain RetainSet, retentionDays int) (domain.Decision, float64) {
	age := AgeDays(now, created)
	if retain.Contains(created) {
		return domain.DecisionRetainAnchor, age
	}
	if age > float64(retentionDays) {
		return domain.DecisionDelete, age
	}
	return domain.DecisionRetainYoung, age
}
