package planning_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zatekoja/visitplanner/internal/domain/entities"
	"github.com/zatekoja/visitplanner/internal/planning"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		code string
		want entities.Category
	}{
		{"D9110", entities.CategoryEmergency},
		{"D0140", entities.CategoryEmergency},
		{"D1110", entities.CategoryCleaning},
		{"D4342", entities.CategoryPeriodontal},
		{"D7210", entities.CategoryExtraction},
		{"D3310", entities.CategoryRootCanal},
		{"D2750", entities.CategoryCrown},
		{"D6010", entities.CategoryImplant},
		{"D2140", entities.CategoryFilling},
		{" d2140 ", entities.CategoryFilling},
		{"D0120", entities.CategoryOther},
		{"", entities.CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, planning.Classify(tt.code))
		})
	}
}

func TestCategoriesOf(t *testing.T) {
	set := planning.CategoriesOf([]entities.Procedure{
		procedure("p1", codeRootCanal, 60),
		procedure("p2", codeFilling, 30),
		procedure("p3", codeFilling, 30),
	})

	assert.Len(t, set, 2)
	assert.True(t, set.Has(entities.CategoryRootCanal))
	assert.True(t, set.HasAny(entities.CategoryCrown, entities.CategoryFilling))
	assert.False(t, set.Has(entities.CategoryCrown))
}
