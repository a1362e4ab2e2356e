package rule

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/tandemhq/tandem/event"
)

// Matcher evaluates rules against normalized events. Compiled regular
// expressions for "matches" conditions are cached across evaluations.
type Matcher struct {
	mu    sync.RWMutex
	cache map[string]*regexp.Regexp
}

// NewMatcher creates a new matcher.
func NewMatcher() *Matcher {
	return &Matcher{
		cache: make(map[string]*regexp.Regexp),
	}
}

// Match returns the rules that fire for the event: enabled rules whose
// trigger names the event's platform and type and whose conditions all hold.
// Results are ordered by ascending rule ID, which for K-sortable IDs is
// creation order, so dispatch order is deterministic.
func (m *Matcher) Match(rules []*Rule, evt *event.Event) []*Rule {
	var matched []*Rule
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		if r.Trigger.Platform != evt.Platform || r.Trigger.EventType != evt.Type {
			continue
		}
		if !m.conditionsHold(r.Conditions, evt) {
			continue
		}
		matched = append(matched, r)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ID.String() < matched[j].ID.String()
	})
	return matched
}

// Evaluate reports whether a single rule's conditions hold for the event,
// ignoring the enabled flag and trigger. Used by the rule test operation.
func (m *Matcher) Evaluate(r *Rule, evt *event.Event) bool {
	return m.conditionsHold(r.Conditions, evt)
}

func (m *Matcher) conditionsHold(conds []Condition, evt *event.Event) bool {
	for _, c := range conds {
		if !m.holds(c, evt) {
			return false
		}
	}
	return true
}

// holds evaluates one condition. An unresolvable field path makes the
// condition false for every operator, including neq.
func (m *Matcher) holds(c Condition, evt *event.Event) bool {
	actual, ok := evt.Lookup(c.Field)
	if !ok {
		return false
	}

	switch c.Operator {
	case OpEq:
		return actual.Equal(c.Value)
	case OpNeq:
		return !actual.Equal(c.Value)
	case OpGt:
		a, aok := actual.Num()
		b, bok := c.Value.Num()
		return aok && bok && a > b
	case OpLt:
		a, aok := actual.Num()
		b, bok := c.Value.Num()
		return aok && bok && a < b
	case OpContains:
		return contains(actual, c.Value)
	case OpMatches:
		pattern, pok := c.Value.Str()
		if !pok {
			return false
		}
		re, err := m.compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(actual.Text())
	default:
		return false
	}
}

// contains checks substring membership for strings and element membership
// for sequences. Other field kinds never contain anything.
func contains(actual, expected event.Value) bool {
	if s, ok := actual.Str(); ok {
		sub, sok := expected.Str()
		return sok && strings.Contains(s, sub)
	}
	if seq, ok := actual.AsSequence(); ok {
		for _, elem := range seq {
			if elem.Equal(expected) {
				return true
			}
		}
	}
	return false
}

func (m *Matcher) compile(pattern string) (*regexp.Regexp, error) {
	m.mu.RLock()
	re, ok := m.cache[pattern]
	m.mu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.cache[pattern] = re
	m.mu.Unlock()
	return re, nil
}
