package templates

import (
	"encoding/json"
	"strings"
)

// Pattern is one or more file name prefixes selecting the templates of a target area.
type Pattern []string

// ParsePattern splits a comma separated prefix list, dropping blanks.
func ParsePattern(raw string) Pattern {
	var p Pattern
	for _, part := range strings.Split(raw, ",") {
		if s := strings.TrimSpace(part); s != "" {
			p = append(p, s)
		}
	}
	return p
}

// Matches reports whether name starts with any prefix. An empty pattern matches nothing.
func (p Pattern) Matches(name string) bool {
	for _, prefix := range p {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func (p Pattern) String() string { return strings.Join(p, ",") }

// MarshalJSON writes a single prefix as a string and several as a list.
func (p Pattern) MarshalJSON() ([]byte, error) {
	if len(p) == 1 {
		return json.Marshal(p[0])
	}
	return json.Marshal([]string(p))
}

// UnmarshalJSON accepts either a string, taken as one literal prefix, or a
// list of strings.
func (p *Pattern) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*p = nil
		if s := strings.TrimSpace(single); s != "" {
			*p = Pattern{s}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	out := make(Pattern, 0, len(many))
	for _, s := range many {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*p = out
	return nil
}
