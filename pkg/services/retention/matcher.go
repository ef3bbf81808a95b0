package retention

import (
	"fmt"
	"regexp"
)

// AllSnapshots is the pattern value that disables identifier filtering.
const AllSnapshots = "ALL_SNAPSHOTS"

// Matcher decides whether a snapshot identifier is in scope for the sweep.
type Matcher interface {
	Match(identifier string) bool
	String() string
}

type MatchAll struct{}

func (MatchAll) Match(identifier string) bool {
	return identifier != ""
}

func (MatchAll) String() string {
	return AllSnapshots
}

// MatchPattern matches when the regex finds a match anywhere in the identifier.
type MatchPattern struct {
	re *regexp.Regexp
}

func (m MatchPattern) Match(identifier string) bool {
	return identifier != "" && m.re.MatchString(identifier)
}

func (m MatchPattern) String() string {
	return m.re.String()
}

func NewMatcher(pattern string) (Matcher, error) {
	if pattern == "" || pattern == AllSnapshots {
		return MatchAll{}, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid snapshot pattern %q: %w", pattern, err)
	}
	return MatchPattern{re: re}, nil
}
