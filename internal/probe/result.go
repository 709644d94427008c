package probe

import (
	"fmt"
	"time"

	"github.com/maxvaer/proxycheck/internal/candidate"
)

// Target is an endpoint fetched through every candidate.
type Target struct {
	Name string `json:"name" yaml:"name" mapstructure:"name"`
	URL  string `json:"url" yaml:"url" mapstructure:"url"`
}

// DefaultTargets returns the two well-known sites probed when no targets
// are configured.
func DefaultTargets() []Target {
	return []Target{
		{Name: "google", URL: "http://www.google.com/"},
		{Name: "facebook", URL: "http://www.facebook.com/"},
	}
}

// ErrorTag classifies a single probe.
type ErrorTag int

const (
	TagNone ErrorTag = iota
	TagTimeout
	TagConnection
	TagOther
)

var tagNames = [...]string{"none", "timeout", "connection", "other"}

// Valid reports whether t is one of the four known tags.
func (t ErrorTag) Valid() bool {
	return t >= TagNone && t <= TagOther
}

func (t ErrorTag) String() string {
	if !t.Valid() {
		return fmt.Sprintf("ErrorTag(%d)", int(t))
	}
	return tagNames[t]
}

func (t ErrorTag) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid error tag %d", int(t))
	}
	return []byte(tagNames[t]), nil
}

func (t *ErrorTag) UnmarshalText(b []byte) error {
	for i, name := range tagNames {
		if string(b) == name {
			*t = ErrorTag(i)
			return nil
		}
	}
	return fmt.Errorf("unknown error tag %q", b)
}

// Outcome is the classified result of one probe. LatencyMs is set iff
// Error is TagNone.
type Outcome struct {
	Target     string   `json:"target"`
	StatusCode int      `json:"status"`
	Error      ErrorTag `json:"error"`
	LatencyMs  *int64   `json:"latency_ms"`
	Detail     string   `json:"detail,omitempty"` // underlying error text for TagOther
}

// OK reports whether the probe received a full response.
func (o Outcome) OK() bool { return o.Error == TagNone }

// Result holds every outcome for one candidate, in target-list order.
type Result struct {
	Candidate candidate.Candidate `json:"candidate"`
	CheckedAt time.Time           `json:"checked_at"`
	Outcomes  []Outcome           `json:"outcomes"`
}

// Successes counts outcomes without an error.
func (r Result) Successes() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

// BestLatency returns the lowest latency across successful outcomes.
func (r Result) BestLatency() (time.Duration, bool) {
	var best int64 = -1
	for _, o := range r.Outcomes {
		if o.LatencyMs == nil {
			continue
		}
		if best < 0 || *o.LatencyMs < best {
			best = *o.LatencyMs
		}
	}
	if best < 0 {
		return 0, false
	}
	return time.Duration(best) * time.Millisecond, true
}
