package planning

import (
	"cmp"
	"slices"

	"github.com/zatekoja/visitplanner/internal/domain/entities"
)

// visitBatch accumulates procedures for the visit currently being built
type visitBatch struct {
	procedures []entities.Procedure
	duration   int
}

func (b *visitBatch) empty() bool {
	return len(b.procedures) == 0
}

func (b *visitBatch) last() entities.Procedure {
	return b.procedures[len(b.procedures)-1]
}

func (b *visitBatch) add(p entities.Procedure) {
	b.procedures = append(b.procedures, p)
	b.duration += p.Duration()
}

type visitBuilder struct {
	constraints entities.Constraints
	batch       visitBatch
	visits      []entities.VisitGroup
}

// GroupProceduresIntoVisits partitions procedures into a clinically ordered
// sequence of visits. It is a single greedy pass: procedures are sorted by
// clinical order then priority and appended to the current visit until a cap,
// a quadrant restriction or a sequencing rule forces a new one. The returned
// visits are already dependency-linked. The input slice is not modified.
func GroupProceduresIntoVisits(procedures []entities.Procedure, constraints entities.Constraints) []entities.VisitGroup {
	visits := newVisitBuilder(constraints).build(sortForVisits(procedures))
	LinkDependencies(visits)
	return visits
}

func newVisitBuilder(constraints entities.Constraints) *visitBuilder {
	return &visitBuilder{
		constraints: constraints,
		visits:      []entities.VisitGroup{},
	}
}

// build walks procedures in the given order and emits visits
func (b *visitBuilder) build(procedures []entities.Procedure) []entities.VisitGroup {
	for _, p := range procedures {
		// an emergency never joins a batch already in progress
		if Classify(p.ProcedureCode) == entities.CategoryEmergency {
			b.flush()
		}
		if !b.canGroup(p) {
			b.flush()
		}
		b.batch.add(p)
	}
	b.flush()
	return b.visits
}

// sortForVisits returns a stably sorted copy ordered by (sequence order, priority rank)
func sortForVisits(procedures []entities.Procedure) []entities.Procedure {
	sorted := slices.Clone(procedures)
	slices.SortStableFunc(sorted, func(a, b entities.Procedure) int {
		if c := cmp.Compare(SequenceOrder(Classify(a.ProcedureCode)), SequenceOrder(Classify(b.ProcedureCode))); c != 0 {
			return c
		}
		return cmp.Compare(PriorityRank(a.Priority), PriorityRank(b.Priority))
	})
	return sorted
}

func (b *visitBuilder) canGroup(p entities.Procedure) bool {
	wouldExceedDuration := b.batch.duration+p.Duration() > b.constraints.MaxDurationPerVisit
	wouldExceedCount := len(b.batch.procedures) >= b.constraints.MaxProceduresPerVisit
	if wouldExceedDuration || wouldExceedCount {
		return false
	}
	if b.batch.empty() {
		return true
	}

	last := b.batch.last()
	if !b.constraints.AllowMultipleQuadrants && p.ToothNumber != nil && last.ToothNumber != nil &&
		Quadrant(*p.ToothNumber) != Quadrant(*last.ToothNumber) {
		return false
	}
	return !RequiresSequencing(Classify(last.ProcedureCode), Classify(p.ProcedureCode))
}

// flush turns the current batch into the next visit
func (b *visitBuilder) flush() {
	if b.batch.empty() {
		return
	}
	visit := entities.NewVisitGroup(len(b.visits) + 1)
	for _, p := range b.batch.procedures {
		visit.AddProcedure(p)
	}
	visit.Notes = VisitNotes(visit.Procedures)
	b.visits = append(b.visits, *visit)
	b.batch = visitBatch{}
}
