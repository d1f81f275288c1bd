package services

import (
	"fmt"

	"github.com/zatekoja/visitplanner/internal/domain/entities"
	apperrors "github.com/zatekoja/visitplanner/pkg/errors"
)

// ValidateProcedures checks caller-supplied procedures before grouping
func ValidateProcedures(procedures []entities.Procedure) error {
	seen := make(map[string]struct{}, len(procedures))
	for i, p := range procedures {
		if p.ID == "" {
			return apperrors.NewValidationError(fmt.Sprintf("procedures[%d]: id is required", i))
		}
		if _, dup := seen[p.ID]; dup {
			return apperrors.NewValidationError(fmt.Sprintf("procedures[%d]: duplicate id %s", i, p.ID))
		}
		seen[p.ID] = struct{}{}

		if p.ProcedureCode == "" {
			return apperrors.NewValidationError(fmt.Sprintf("procedure %s: procedure_code is required", p.ID))
		}
		if !p.Priority.IsValid() {
			return apperrors.NewValidationError(fmt.Sprintf("procedure %s: invalid priority %q", p.ID, p.Priority))
		}
		if p.EstimatedDuration != nil && *p.EstimatedDuration < 0 {
			return apperrors.NewValidationError(fmt.Sprintf("procedure %s: estimated_duration must not be negative", p.ID))
		}
		if p.EstimatedCost != nil && *p.EstimatedCost < 0 {
			return apperrors.NewValidationError(fmt.Sprintf("procedure %s: estimated_cost must not be negative", p.ID))
		}
	}
	return nil
}

// ValidateConstraints rejects caps that could never hold a procedure
func ValidateConstraints(c entities.Constraints) error {
	if c.MaxDurationPerVisit <= 0 {
		return apperrors.NewValidationError("max_duration_per_visit must be positive")
	}
	if c.MaxProceduresPerVisit <= 0 {
		return apperrors.NewValidationError("max_procedures_per_visit must be positive")
	}
	return nil
}
