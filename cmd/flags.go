package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/maxvaer/proxycheck/internal/probe"
)

// intSliceValue implements pflag.Value for comma-separated int slices.
type intSliceValue struct {
	target *[]int
}

func (v *intSliceValue) String() string {
	if v.target == nil || len(*v.target) == 0 {
		return ""
	}
	parts := make([]string, len(*v.target))
	for i, val := range *v.target {
		parts[i] = strconv.Itoa(val)
	}
	return strings.Join(parts, ",")
}

func (v *intSliceValue) Set(s string) error {
	parts := strings.Split(s, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid status code %q: %w", p, err)
		}
		*v.target = append(*v.target, n)
	}
	return nil
}

func (v *intSliceValue) Type() string { return "ints" }

// targetValue implements pflag.Value for repeatable name=url targets. The
// first Set replaces the defaults.
type targetValue struct {
	target *[]probe.Target
	set    bool
}

func (v *targetValue) String() string {
	if v.target == nil {
		return ""
	}
	parts := make([]string, len(*v.target))
	for i, t := range *v.target {
		parts[i] = t.Name + "=" + t.URL
	}
	return strings.Join(parts, ",")
}

func (v *targetValue) Set(s string) error {
	name, rawURL, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	rawURL = strings.TrimSpace(rawURL)
	if !ok || name == "" || rawURL == "" {
		return fmt.Errorf("invalid target %q, expected name=url", s)
	}
	if !v.set {
		*v.target = nil
		v.set = true
	}
	*v.target = append(*v.target, probe.Target{Name: name, URL: rawURL})
	return nil
}

func (v *targetValue) Type() string { return "name=url" }

func formatFlag(f *pflag.Flag) string {
	var left string
	if f.Shorthand != "" {
		left = fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	} else {
		left = fmt.Sprintf("    --%s", f.Name)
	}

	typ := f.Value.Type()
	if typ != "bool" {
		left += " " + typ
	}

	// Pad to fixed column width for aligned descriptions.
	const col = 36
	for len(left) < col {
		left += " "
	}

	right := f.Usage
	// Show default for non-zero values.
	def := f.DefValue
	if def != "" && def != "false" && def != "0" && def != "0s" && def != "[]" {
		right += fmt.Sprintf(" (default %s)", def)
	}

	return "   " + left + right
}
