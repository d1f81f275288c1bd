package planning

import (
	"github.com/zatekoja/visitplanner/internal/domain/entities"
)

// sequenceOrder ranks categories in clinical order. Filling and other share a rank.
var sequenceOrder = map[entities.Category]int{
	entities.CategoryEmergency:   1,
	entities.CategoryCleaning:    2,
	entities.CategoryPeriodontal: 2,
	entities.CategoryExtraction:  3,
	entities.CategoryRootCanal:   4,
	entities.CategoryFilling:     5,
	entities.CategoryCrown:       6,
	entities.CategoryImplant:     7,
	entities.CategoryOther:       5,
}

// SequenceOrder returns the clinical rank of a category
func SequenceOrder(c entities.Category) int {
	if order, ok := sequenceOrder[c]; ok {
		return order
	}
	return sequenceOrder[entities.CategoryOther]
}

var priorityRank = map[entities.Priority]int{
	entities.PriorityUrgent: 0,
	entities.PriorityHigh:   1,
	entities.PriorityNormal: 2,
	entities.PriorityLow:    3,
}

// PriorityRank orders priorities, most urgent first. Unknown priorities rank as normal.
func PriorityRank(p entities.Priority) int {
	if rank, ok := priorityRank[p]; ok {
		return rank
	}
	return priorityRank[entities.PriorityNormal]
}

type categoryPair struct {
	first, then entities.Category
}

// sequencedPairs holds the ordered pairs that must never share a visit
var sequencedPairs = map[categoryPair]struct{}{
	{entities.CategoryRootCanal, entities.CategoryCrown}:     {},
	{entities.CategoryExtraction, entities.CategoryImplant}:  {},
	{entities.CategoryPeriodontal, entities.CategoryFilling}: {},
}

// RequiresSequencing reports whether work of category first must be completed
// in an earlier visit than work of category then. The relation is neither
// symmetric nor transitive.
func RequiresSequencing(first, then entities.Category) bool {
	_, ok := sequencedPairs[categoryPair{first, then}]
	return ok
}

type healingRule struct {
	completed entities.Category
	next      entities.Category // empty matches any next visit
	days      int
}

// healingRules are evaluated in order, first match wins
var healingRules = []healingRule{
	{completed: entities.CategoryExtraction, next: entities.CategoryImplant, days: 90},
	{completed: entities.CategoryRootCanal, next: entities.CategoryCrown, days: 7},
	{completed: entities.CategoryPeriodontal, next: entities.CategoryFilling, days: 7},
	{completed: entities.CategoryEmergency, days: 2},
}

const defaultHealingDays = 7

// HealingDays returns the minimum gap in days between a completed visit and
// the next visit given the categories each contains
func HealingDays(completed, next CategorySet) int {
	for _, rule := range healingRules {
		if !completed.Has(rule.completed) {
			continue
		}
		if rule.next == "" || next.Has(rule.next) {
			return rule.days
		}
	}
	return defaultHealingDays
}

// Quadrant maps an FDI tooth number to its mouth quadrant, 0 when outside the permanent dentition
func Quadrant(tooth int) int {
	switch {
	case tooth >= 11 && tooth <= 18:
		return 1
	case tooth >= 21 && tooth <= 28:
		return 2
	case tooth >= 31 && tooth <= 38:
		return 3
	case tooth >= 41 && tooth <= 48:
		return 4
	}
	return 0
}
