package planning

import (
	"github.com/zatekoja/visitplanner/internal/domain/entities"
)

// LinkDependencies marks each visit that must follow the visit immediately
// before it. Only adjacent visits are compared: a dependency on a visit two
// or more positions earlier is detected only through a chain of adjacent links.
func LinkDependencies(visits []entities.VisitGroup) {
	for i := 1; i < len(visits); i++ {
		prev, curr := &visits[i-1], &visits[i]
		if dependsOn(prev, curr) {
			prevID := prev.ID
			curr.RequiresPriorVisit = &prevID
		}
	}
}

func dependsOn(prev, curr *entities.VisitGroup) bool {
	for _, before := range prev.Procedures {
		for _, after := range curr.Procedures {
			if RequiresSequencing(Classify(before.ProcedureCode), Classify(after.ProcedureCode)) {
				return true
			}
		}
	}
	return false
}
