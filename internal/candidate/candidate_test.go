package candidate

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		pair RawPair
		want Candidate
		ok   bool
	}{
		{name: "ipv4", pair: RawPair{"8.8.8.8", "80"}, want: Candidate{"8.8.8.8", 80}, ok: true},
		{name: "ipv6", pair: RawPair{"2001:db8::1", "3128"}, want: Candidate{"2001:db8::1", 3128}, ok: true},
		{name: "lowest port", pair: RawPair{"1.2.3.4", "1"}, want: Candidate{"1.2.3.4", 1}, ok: true},
		{name: "highest port", pair: RawPair{"1.2.3.4", "65535"}, want: Candidate{"1.2.3.4", 65535}, ok: true},
		{name: "hostname", pair: RawPair{"not-an-ip", "80"}},
		{name: "empty address", pair: RawPair{"", "80"}},
		{name: "octet out of range", pair: RawPair{"256.1.1.1", "80"}},
		{name: "port zero", pair: RawPair{"1.2.3.4", "0"}},
		{name: "port too large", pair: RawPair{"1.2.3.4", "99999"}},
		{name: "negative port", pair: RawPair{"1.2.3.4", "-1"}},
		{name: "non numeric port", pair: RawPair{"1.2.3.4", "http"}},
		{name: "empty port", pair: RawPair{"1.2.3.4", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.pair)
			if ok != tt.ok {
				t.Fatalf("Parse(%+v) ok = %v, want %v", tt.pair, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Parse(%+v) = %+v, want %+v", tt.pair, got, tt.want)
			}
		})
	}
}

func TestNormalizeScenario(t *testing.T) {
	pairs := []RawPair{
		{"8.8.8.8", "80"},
		{"8.8.8.8", "80"},
		{"not-an-ip", "80"},
		{"1.2.3.4", "99999"},
	}

	got, stats := NormalizeWithStats(pairs)
	if len(got) != 1 || got[0] != (Candidate{"8.8.8.8", 80}) {
		t.Fatalf("Normalize = %+v, want [{8.8.8.8 80}]", got)
	}
	want := Stats{Input: 4, Invalid: 2, Duplicate: 1, Accepted: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestNormalizeDeduplicates(t *testing.T) {
	pairs := []RawPair{
		{"10.0.0.1", "8080"},
		{"10.0.0.2", "8080"},
		{"10.0.0.1", "8080"},
		{"10.0.0.1", "3128"},
		{"10.0.0.2", "8080"},
	}

	got := Normalize(pairs)
	seen := make(map[Candidate]int)
	for _, c := range got {
		seen[c]++
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 unique candidates, got %d: %+v", len(got), got)
	}
	for c, n := range seen {
		if n != 1 {
			t.Errorf("candidate %s appears %d times", c, n)
		}
	}
}

func TestNormalizeEmpty(t *testing.T) {
	if got := Normalize(nil); len(got) != 0 {
		t.Errorf("Normalize(nil) = %+v, want empty", got)
	}
}

func TestCandidateString(t *testing.T) {
	if got := (Candidate{"1.2.3.4", 8080}).ProxyURL(); got != "http://1.2.3.4:8080" {
		t.Errorf("ProxyURL = %q", got)
	}
	if got := (Candidate{"2001:db8::1", 80}).String(); got != "[2001:db8::1]:80" {
		t.Errorf("String = %q", got)
	}
}
