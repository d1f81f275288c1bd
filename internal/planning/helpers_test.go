package planning_test

import (
	"github.com/zatekoja/visitplanner/internal/domain/entities"
)

const (
	codeEmergency   = "D9110"
	codeCleaning    = "D1110"
	codePeriodontal = "D4341"
	codeExtraction  = "D7140"
	codeRootCanal   = "D3330"
	codeCrown       = "D2740"
	codeImplant     = "D6010"
	codeFilling     = "D2391"
	codeUnknown     = "X9999"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func procedure(id, code string, duration int) entities.Procedure {
	return entities.Procedure{
		ID:                id,
		ProcedureCode:     code,
		Priority:          entities.PriorityNormal,
		EstimatedDuration: intPtr(duration),
	}
}

func onTooth(p entities.Procedure, tooth int) entities.Procedure {
	p.ToothNumber = intPtr(tooth)
	return p
}

func withPriority(p entities.Procedure, priority entities.Priority) entities.Procedure {
	p.Priority = priority
	return p
}

func visitIDs(visits []entities.VisitGroup) [][]string {
	out := make([][]string, len(visits))
	for i, v := range visits {
		for _, p := range v.Procedures {
			out[i] = append(out[i], p.ID)
		}
	}
	return out
}
