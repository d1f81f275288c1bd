package planning

import (
	"fmt"
	"strings"

	"github.com/zatekoja/visitplanner/internal/domain/entities"
)

const (
	noteSeparator     = " | "
	standardVisitNote = "Standard treatment visit"
)

type visitNoteRule struct {
	applies func(CategorySet) bool
	note    string
}

func hasCategory(cs ...entities.Category) func(CategorySet) bool {
	return func(s CategorySet) bool { return s.HasAny(cs...) }
}

var visitNoteRules = []visitNoteRule{
	{hasCategory(entities.CategoryEmergency), "EMERGENCY: address pain or infection before other treatment"},
	{hasCategory(entities.CategoryCleaning, entities.CategoryPeriodontal), "Cleaning/periodontal therapy precedes restorative work"},
	{hasCategory(entities.CategoryRootCanal), "Root canal therapy: crown follows after healing"},
	{hasCategory(entities.CategoryExtraction), "Extraction: implant placement after 3 months of healing"},
	{hasCategory(entities.CategoryImplant), "Implant placement: allow 3-6 months for osseointegration"},
}

// VisitNotes builds the human readable annotation for a visit's procedures
func VisitNotes(procedures []entities.Procedure) string {
	categories := CategoriesOf(procedures)

	var notes []string
	for _, rule := range visitNoteRules {
		if rule.applies(categories) {
			notes = append(notes, rule.note)
		}
	}

	visit := entities.VisitGroup{Procedures: procedures}
	if teeth := visit.ToothNumbers(); len(teeth) > 1 {
		labels := make([]string, len(teeth))
		for i, tooth := range teeth {
			labels[i] = fmt.Sprintf("#%d", tooth)
		}
		notes = append(notes, "Multiple teeth: "+strings.Join(labels, ", "))
	}

	if len(notes) == 0 {
		return standardVisitNote
	}
	return strings.Join(notes, noteSeparator)
}
