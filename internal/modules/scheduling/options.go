// README: Search options covering the overlap rule, break enforcement and bounds.
package scheduling

import (
	"fmt"
	"strings"
	"time"
)

// OverlapRule selects how two bookings of the same driver are compared.
type OverlapRule string

const (
	// OverlapEndpoint flags a conflict only when the new ride's start or end
	// falls strictly inside an existing booking. A ride that fully contains an
	// existing booking, or matches it exactly, is not flagged.
	OverlapEndpoint OverlapRule = "endpoint"
	// OverlapInterval flags any intersection of the half-open intervals.
	OverlapInterval OverlapRule = "interval"
)

func ParseOverlapRule(s string) (OverlapRule, error) {
	switch OverlapRule(strings.ToLower(strings.TrimSpace(s))) {
	case "", OverlapEndpoint:
		return OverlapEndpoint, nil
	case OverlapInterval:
		return OverlapInterval, nil
	default:
		return "", fmt.Errorf("unknown overlap rule %q", s)
	}
}

type Options struct {
	Overlap       OverlapRule
	EnforceBreaks bool
	// MaxNodes bounds the number of stack pops; zero means unbounded.
	MaxNodes int
	// Location interprets request times without an explicit offset.
	Location *time.Location
}

func DefaultOptions() Options {
	return Options{Overlap: OverlapEndpoint, Location: time.UTC}
}

func (o Options) withDefaults() Options {
	if o.Overlap == "" {
		o.Overlap = OverlapEndpoint
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}
