// Package featureflags gates optional behavior per user.
package featureflags

import (
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Set holds rollout switches parsed from "name=value" pairs, for example
// "llm_rewrite=25%,uploads=on". Values are on/off/true/false/1/0 or a
// percentage of users.
type Set struct {
	values map[string]string
}

// Parse builds a Set. Malformed pairs are ignored.
func Parse(raw string) *Set {
	values := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		name, value = normalize(name), normalize(value)
		if name == "" || value == "" {
			continue
		}
		values[name] = value
	}
	return &Set{values: values}
}

// Enabled reports whether name is on for subject. Percentage rollouts hash
// name and subject together, so a user stays in or out of a rollout across
// restarts; an empty subject is never inside a partial rollout.
func (s *Set) Enabled(name, subject string) bool {
	if s == nil {
		return false
	}

	value, ok := s.values[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pct, err := strconv.Atoi(strings.TrimSuffix(value, "%"))
	if err != nil || !strings.HasSuffix(value, "%") || pct <= 0 {
		return false
	}
	if pct >= 100 {
		return true
	}
	if subject == "" {
		return false
	}
	return bucket(name, subject) < pct
}

// Names lists configured flags in sorted order.
func (s *Set) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func bucket(name, subject string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + subject))
	return int(h.Sum32() % 100)
}
