package progress

import (
	"sort"
)

// EventKind is the user action that triggered an evaluation
type EventKind string

const (
	EventRockPosted    EventKind = "rock_posted"
	EventRockFound     EventKind = "rock_found"
	EventHuntJoined    EventKind = "hunt_joined"
	EventHuntCompleted EventKind = "hunt_completed"
	EventSocialAction  EventKind = "social_action"
)

// Valid reports whether k is one of the known event kinds
func (k EventKind) Valid() bool {
	switch k {
	case EventRockPosted, EventRockFound, EventHuntJoined, EventHuntCompleted, EventSocialAction:
		return true
	}
	return false
}

// Event carries the fields a specific criteria may match on
type Event struct {
	Kind       EventKind
	RockID     string
	RockType   string
	HuntID     string
	Difficulty string
}

// Stats is a snapshot of the user's counters after the action was applied
type Stats struct {
	RockCount        int
	HuntCount        int
	SocialCount      int
	CurrentStreak    int
	RockTypes        []string
	HuntDifficulties []string
	Held             map[string]bool
}

// Rule is one catalog entry as seen by the evaluator
type Rule struct {
	ID       string
	Type     AchievementType
	Criteria Criteria
}

// Evaluate returns the IDs of rules newly satisfied by stats and event,
// sorted ascending. Rules already in stats.Held are never returned.
func Evaluate(stats Stats, event Event, catalog []Rule) []string {
	satisfied := make([]string, 0)
	seen := make(map[string]bool, len(catalog))
	for _, rule := range catalog {
		if stats.Held[rule.ID] || seen[rule.ID] {
			continue
		}
		if satisfies(stats, event, rule) {
			seen[rule.ID] = true
			satisfied = append(satisfied, rule.ID)
		}
	}
	sort.Strings(satisfied)
	return satisfied
}

func satisfies(stats Stats, event Event, rule Rule) bool {
	c := rule.Criteria
	switch c.Kind {
	case KindCount:
		value, ok := counterValue(stats, countCounter(rule))
		return ok && value >= c.Target
	case KindSpecific:
		return matchesSpecific(c.Specific, event)
	case KindStreak:
		return stats.CurrentStreak >= c.Target
	case KindVariety:
		return distinct(varietyValues(stats, c.Variety)) >= c.Target
	default:
		return false
	}
}

func countCounter(rule Rule) Counter {
	if rule.Criteria.Count != nil && rule.Criteria.Count.Counter != "" {
		return rule.Criteria.Count.Counter
	}
	switch rule.Type {
	case TypeRocks:
		return CounterRocks
	case TypeHunts:
		return CounterHunts
	case TypeSocial:
		return CounterSocial
	case TypeGeology:
		return CounterRockTypes
	}
	return ""
}

func counterValue(stats Stats, counter Counter) (int, bool) {
	switch counter {
	case CounterRocks:
		return stats.RockCount, true
	case CounterHunts:
		return stats.HuntCount, true
	case CounterSocial:
		return stats.SocialCount, true
	case CounterRockTypes:
		return distinct(stats.RockTypes), true
	}
	return 0, false
}

func matchesSpecific(details *SpecificDetails, event Event) bool {
	if details == nil || details.Event != event.Kind {
		return false
	}
	if details.RockType != "" && details.RockType != event.RockType {
		return false
	}
	if details.RockID != "" && details.RockID != event.RockID {
		return false
	}
	if details.HuntID != "" && details.HuntID != event.HuntID {
		return false
	}
	if details.Difficulty != "" && details.Difficulty != event.Difficulty {
		return false
	}
	return true
}

func varietyValues(stats Stats, details *VarietyDetails) []string {
	if details != nil && details.Category == CategoryDifficulty {
		return stats.HuntDifficulties
	}
	return stats.RockTypes
}

func distinct(values []string) int {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return len(set)
}

// IsHuntComplete reports whether found covers every rock of the hunt.
// A hunt without rocks is never complete.
func IsHuntComplete(huntRocks []string, found []string) bool {
	if len(huntRocks) == 0 {
		return false
	}
	have := make(map[string]struct{}, len(found))
	for _, id := range found {
		have[id] = struct{}{}
	}
	for _, id := range huntRocks {
		if _, ok := have[id]; !ok {
			return false
		}
	}
	return true
}
