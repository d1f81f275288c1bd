package planning

import (
	"strings"

	"github.com/zatekoja/visitplanner/internal/domain/entities"
)

// categoryCodes lists the CDT codes claimed by each clinical category
var categoryCodes = map[entities.Category][]string{
	entities.CategoryEmergency:   {"D0140", "D0170", "D9110"},
	entities.CategoryCleaning:    {"D1110", "D1120", "D1206", "D1208"},
	entities.CategoryPeriodontal: {"D4341", "D4342", "D4355", "D4910"},
	entities.CategoryExtraction:  {"D7140", "D7210", "D7220", "D7230", "D7240"},
	entities.CategoryRootCanal:   {"D3310", "D3320", "D3330", "D3346", "D3347", "D3348"},
	entities.CategoryCrown:       {"D2740", "D2750", "D2751", "D2790", "D2792"},
	entities.CategoryImplant:     {"D6010", "D6056", "D6058", "D6065"},
	entities.CategoryFilling:     {"D2140", "D2150", "D2160", "D2330", "D2331", "D2332", "D2391", "D2392", "D2393"},
}

var codeIndex = buildCodeIndex()

func buildCodeIndex() map[string]entities.Category {
	index := make(map[string]entities.Category)
	for category, codes := range categoryCodes {
		for _, code := range codes {
			index[code] = category
		}
	}
	return index
}

// Classify maps a procedure code to its clinical category.
// Codes no category claims classify as other.
func Classify(code string) entities.Category {
	if category, ok := codeIndex[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return category
	}
	return entities.CategoryOther
}

// CategorySet is an unordered set of categories
type CategorySet map[entities.Category]struct{}

// Has reports whether c is in the set
func (s CategorySet) Has(c entities.Category) bool {
	_, ok := s[c]
	return ok
}

// HasAny reports whether any of cs is in the set
func (s CategorySet) HasAny(cs ...entities.Category) bool {
	for _, c := range cs {
		if s.Has(c) {
			return true
		}
	}
	return false
}

// CategoriesOf classifies every procedure and collects the distinct categories
func CategoriesOf(procedures []entities.Procedure) CategorySet {
	set := make(CategorySet, len(procedures))
	for _, p := range procedures {
		set[Classify(p.ProcedureCode)] = struct{}{}
	}
	return set
}

// CategoriesFromCodes classifies raw procedure codes
func CategoriesFromCodes(codes []string) CategorySet {
	set := make(CategorySet, len(codes))
	for _, code := range codes {
		set[Classify(code)] = struct{}{}
	}
	return set
}
