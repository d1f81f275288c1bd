package entities

// Priority represents how urgently a proposed procedure should be performed
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// IsValid reports whether p is one of the known priorities
func (p Priority) IsValid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// Category is the coarse clinical classification of a procedure
type Category string

const (
	CategoryEmergency   Category = "emergency"
	CategoryCleaning    Category = "cleaning"
	CategoryPeriodontal Category = "periodontal"
	CategoryExtraction  Category = "extraction"
	CategoryRootCanal   Category = "root_canal"
	CategoryCrown       Category = "crown"
	CategoryImplant     Category = "implant"
	CategoryFilling     Category = "filling"
	CategoryOther       Category = "other"
)

// Procedure represents a single proposed dental treatment item.
// Procedures are produced by treatment-plan workflows and are never
// modified by the planner.
type Procedure struct {
	ID                string   `json:"id" db:"id"`
	PatientID         string   `json:"patient_id,omitempty" db:"patient_id"`
	ToothNumber       *int     `json:"tooth_number,omitempty" db:"tooth_number"` // FDI notation
	ProcedureCode     string   `json:"procedure_code" db:"procedure_code"`       // CDT code
	Description       string   `json:"description,omitempty" db:"description"`
	Priority          Priority `json:"priority" db:"priority"`
	EstimatedDuration *int     `json:"estimated_duration,omitempty" db:"estimated_duration"` // in minutes
	EstimatedCost     *float64 `json:"estimated_cost,omitempty" db:"estimated_cost"`
}

// Duration returns the estimated duration in minutes, 0 when unknown
func (p Procedure) Duration() int {
	if p.EstimatedDuration == nil {
		return 0
	}
	return *p.EstimatedDuration
}

// Cost returns the estimated cost, 0 when unknown
func (p Procedure) Cost() float64 {
	if p.EstimatedCost == nil {
		return 0
	}
	return *p.EstimatedCost
}
