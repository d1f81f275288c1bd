package repositories

import (
	"context"

	"github.com/zatekoja/visitplanner/internal/domain/entities"
)

// ProposedProcedureRepository reads procedures proposed by the treatment-plan builder
type ProposedProcedureRepository interface {
	// ListByPatient retrieves the open proposed procedures for a patient
	ListByPatient(ctx context.Context, patientID string) ([]entities.Procedure, error)

	// GetByIDs retrieves proposed procedures by their IDs
	GetByIDs(ctx context.Context, ids []string) ([]entities.Procedure, error)
}
