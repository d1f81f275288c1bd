package entities

const (
	DefaultMaxDurationPerVisit   = 180
	DefaultMaxProceduresPerVisit = 4
)

// Constraints caps what may be grouped into a single visit
type Constraints struct {
	MaxDurationPerVisit    int  `json:"max_duration_per_visit"` // in minutes
	MaxProceduresPerVisit  int  `json:"max_procedures_per_visit"`
	AllowMultipleQuadrants bool `json:"allow_multiple_quadrants"`
	PreferAdjacentTeeth    bool `json:"prefer_adjacent_teeth"` // advisory only
}

// DefaultConstraints returns the clinic-wide grouping defaults
func DefaultConstraints() Constraints {
	return Constraints{
		MaxDurationPerVisit:    DefaultMaxDurationPerVisit,
		MaxProceduresPerVisit:  DefaultMaxProceduresPerVisit,
		AllowMultipleQuadrants: true,
		PreferAdjacentTeeth:    true,
	}
}

// ConstraintOverrides carries a caller-supplied partial set of constraints.
// Nil fields keep the base value.
type ConstraintOverrides struct {
	MaxDurationPerVisit    *int  `json:"max_duration_per_visit,omitempty"`
	MaxProceduresPerVisit  *int  `json:"max_procedures_per_visit,omitempty"`
	AllowMultipleQuadrants *bool `json:"allow_multiple_quadrants,omitempty"`
	PreferAdjacentTeeth    *bool `json:"prefer_adjacent_teeth,omitempty"`
}

// Merge applies the overrides on top of base
func (o *ConstraintOverrides) Merge(base Constraints) Constraints {
	if o == nil {
		return base
	}
	merged := base
	if o.MaxDurationPerVisit != nil {
		merged.MaxDurationPerVisit = *o.MaxDurationPerVisit
	}
	if o.MaxProceduresPerVisit != nil {
		merged.MaxProceduresPerVisit = *o.MaxProceduresPerVisit
	}
	if o.AllowMultipleQuadrants != nil {
		merged.AllowMultipleQuadrants = *o.AllowMultipleQuadrants
	}
	if o.PreferAdjacentTeeth != nil {
		merged.PreferAdjacentTeeth = *o.PreferAdjacentTeeth
	}
	return merged
}
