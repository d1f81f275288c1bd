package database

import (
	"context"

	"github.com/doug-martin/goqu/v9"
	"github.com/jmoiron/sqlx"
	"github.com/zatekoja/visitplanner/internal/domain/entities"
	"github.com/zatekoja/visitplanner/internal/domain/repositories"
	"github.com/zatekoja/visitplanner/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/visitplanner/pkg/errors"
)

const (
	proposedProceduresTable = "proposed_procedures"
	proposedStatus          = "proposed"
)

// ProposedProcedureAdapter reads the procedures the treatment-plan builder has
// proposed for a patient. Rows map straight onto entities.Procedure via sqlx.
type ProposedProcedureAdapter struct {
	db *sqlx.DB
	qb goqu.DialectWrapper
}

// NewProposedProcedureAdapter creates a new proposed procedure adapter
func NewProposedProcedureAdapter(client *postgres.Client) repositories.ProposedProcedureRepository {
	return &ProposedProcedureAdapter{
		db: sqlx.NewDb(client.DB(), "postgres"),
		qb: goqu.Dialect("postgres"),
	}
}

func (a *ProposedProcedureAdapter) selectProcedures() *goqu.SelectDataset {
	return a.qb.From(proposedProceduresTable).Select(
		goqu.C("id"),
		goqu.C("patient_id"),
		goqu.C("tooth_number"),
		goqu.C("procedure_code"),
		goqu.COALESCE(goqu.C("description"), "").As("description"),
		goqu.COALESCE(goqu.C("priority"), string(entities.PriorityNormal)).As("priority"),
		goqu.C("estimated_duration"),
		goqu.C("estimated_cost"),
	)
}

// ListByPatient retrieves the open proposed procedures for a patient in proposal order
func (a *ProposedProcedureAdapter) ListByPatient(ctx context.Context, patientID string) ([]entities.Procedure, error) {
	query, args, err := a.selectProcedures().
		Where(goqu.Ex{"patient_id": patientID, "status": proposedStatus}).
		Order(goqu.I("created_at").Asc(), goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	procedures := []entities.Procedure{}
	if err := a.db.SelectContext(ctx, &procedures, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to list proposed procedures", err)
	}
	return procedures, nil
}

// GetByIDs retrieves still-proposed procedures by their IDs
func (a *ProposedProcedureAdapter) GetByIDs(ctx context.Context, ids []string) ([]entities.Procedure, error) {
	if len(ids) == 0 {
		return []entities.Procedure{}, nil
	}

	query, args, err := a.selectProcedures().
		Where(goqu.Ex{"id": ids, "status": proposedStatus}).
		Order(goqu.I("created_at").Asc(), goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	procedures := []entities.Procedure{}
	if err := a.db.SelectContext(ctx, &procedures, query, args...); err != nil {
		return nil, apperrors.NewInternalError("failed to get proposed procedures by ids", err)
	}
	return procedures, nil
}
