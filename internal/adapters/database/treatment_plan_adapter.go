package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"
	"github.com/zatekoja/visitplanner/internal/domain/entities"
	"github.com/zatekoja/visitplanner/internal/domain/repositories"
	"github.com/zatekoja/visitplanner/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/visitplanner/pkg/errors"
)

const treatmentPlansTable = "treatment_plans"

var treatmentPlanColumns = []any{
	"id", "patient_id", "status", "constraints", "visits", "created_at", "updated_at",
}

// TreatmentPlanAdapter implements TreatmentPlanRepository.
// Visits and constraints are stored as JSONB; tooth_numbers is a
// denormalised int[] used for filtering.
type TreatmentPlanAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewTreatmentPlanAdapter creates a new treatment plan adapter
func NewTreatmentPlanAdapter(client *postgres.Client) repositories.TreatmentPlanRepository {
	return &TreatmentPlanAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create stores a new treatment plan
func (a *TreatmentPlanAdapter) Create(ctx context.Context, plan *entities.TreatmentPlan) error {
	constraints, visits, err := encodePlan(plan)
	if err != nil {
		return err
	}

	record := goqu.Record{
		"id":            plan.ID,
		"patient_id":    plan.PatientID,
		"status":        string(plan.Status),
		"constraints":   constraints,
		"visits":        visits,
		"tooth_numbers": pq.Array(plan.ToothNumbers()),
		"created_at":    plan.CreatedAt,
		"updated_at":    plan.UpdatedAt,
	}

	query, args, err := a.db.Insert(treatmentPlansTable).Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to create treatment plan", err)
	}
	return nil
}

// GetByID retrieves a treatment plan by ID
func (a *TreatmentPlanAdapter) GetByID(ctx context.Context, id string) (*entities.TreatmentPlan, error) {
	query, args, err := a.db.Select(treatmentPlanColumns...).
		From(treatmentPlansTable).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	plan, err := scanPlan(a.client.DB().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("treatment plan with id %s not found", id))
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Update replaces the status and visits of a stored plan, guarded by the
// updated_at value the caller read
func (a *TreatmentPlanAdapter) Update(ctx context.Context, plan *entities.TreatmentPlan) error {
	readAt := plan.UpdatedAt
	updatedAt := time.Now().UTC().Truncate(time.Microsecond)
	if !updatedAt.After(readAt) {
		updatedAt = readAt.Add(time.Microsecond)
	}

	_, visits, err := encodePlan(plan)
	if err != nil {
		return err
	}

	query, args, err := a.db.Update(treatmentPlansTable).
		Set(goqu.Record{
			"status":        string(plan.Status),
			"visits":        visits,
			"tooth_numbers": pq.Array(plan.ToothNumbers()),
			"updated_at":    updatedAt,
		}).
		Where(goqu.Ex{"id": plan.ID, "updated_at": readAt}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update treatment plan", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return a.updateMissError(ctx, plan.ID)
	}
	plan.UpdatedAt = updatedAt
	return nil
}

// updateMissError tells a missing plan apart from one changed by another writer
func (a *TreatmentPlanAdapter) updateMissError(ctx context.Context, id string) error {
	query, args, err := a.db.From(treatmentPlansTable).
		Select(goqu.L("1")).
		Where(goqu.Ex{"id": id}).
		Limit(1).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build query", err)
	}

	var exists int
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.NewNotFoundError(fmt.Sprintf("treatment plan with id %s not found", id))
	}
	if err != nil {
		return apperrors.NewInternalError("failed to check treatment plan", err)
	}
	return apperrors.NewConflictError(fmt.Sprintf("treatment plan %s was modified concurrently, reload and retry", id))
}

// ListByPatient retrieves the plans of a patient, newest first
func (a *TreatmentPlanAdapter) ListByPatient(ctx context.Context, patientID string, filter repositories.TreatmentPlanFilter) ([]*entities.TreatmentPlan, error) {
	ds := a.db.Select(treatmentPlanColumns...).
		From(treatmentPlansTable).
		Where(goqu.Ex{"patient_id": patientID}).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Asc())

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": string(filter.Status)})
	}
	if filter.ToothNumber != nil {
		ds = ds.Where(goqu.L("? = ANY(tooth_numbers)", *filter.ToothNumber))
	}
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list treatment plans", err)
	}
	defer rows.Close()

	plans := []*entities.TreatmentPlan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate treatment plans", err)
	}
	return plans, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*entities.TreatmentPlan, error) {
	plan := &entities.TreatmentPlan{}
	var status string
	var constraints, visits []byte

	err := row.Scan(
		&plan.ID,
		&plan.PatientID,
		&status,
		&constraints,
		&visits,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to scan treatment plan", err)
	}

	plan.Status = entities.PlanStatus(status)
	if err := json.Unmarshal(constraints, &plan.Constraints); err != nil {
		return nil, apperrors.NewInternalError("failed to decode plan constraints", err)
	}
	if err := json.Unmarshal(visits, &plan.Visits); err != nil {
		return nil, apperrors.NewInternalError("failed to decode plan visits", err)
	}
	if plan.Visits == nil {
		plan.Visits = []entities.VisitGroup{}
	}
	return plan, nil
}

func encodePlan(plan *entities.TreatmentPlan) (constraints, visits string, err error) {
	c, err := json.Marshal(plan.Constraints)
	if err != nil {
		return "", "", apperrors.NewInternalError("failed to encode plan constraints", err)
	}
	v, err := json.Marshal(plan.Visits)
	if err != nil {
		return "", "", apperrors.NewInternalError("failed to encode plan visits", err)
	}
	return string(c), string(v), nil
}
