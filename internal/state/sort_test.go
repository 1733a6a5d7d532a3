package state

import (
	"testing"

	"pickme/internal/models"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestComparator_Order(t *testing.T) {
	cmp := NewComparator(language.English)

	tests := []struct {
		name string
		a, b models.StudentRecord
	}{
		{
			name: "higher pick count first",
			a:    models.StudentRecord{ID: "1", Name: "Zed", PickCount: 5, Group: 9},
			b:    models.StudentRecord{ID: "2", Name: "Amy", PickCount: 2, Group: 0},
		},
		{
			name: "lower group first",
			a:    models.StudentRecord{ID: "1", Name: "Zed", PickCount: 2, Group: 1},
			b:    models.StudentRecord{ID: "2", Name: "Amy", PickCount: 2, Group: 3},
		},
		{
			name: "name by collation",
			a:    models.StudentRecord{ID: "9", Name: "amy", PickCount: 2, Group: 1},
			b:    models.StudentRecord{ID: "1", Name: "Bob", PickCount: 2, Group: 1},
		},
		{
			name: "id breaks ties",
			a:    models.StudentRecord{ID: "a1", Name: "Amy", PickCount: 2, Group: 1},
			b:    models.StudentRecord{ID: "a2", Name: "Amy", PickCount: 2, Group: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Negative(t, cmp.Compare(tt.a, tt.b))
			assert.Positive(t, cmp.Compare(tt.b, tt.a))
		})
	}
}

func TestComparator_SortDoesNotMutateInput(t *testing.T) {
	cmp := NewComparator(language.Chinese)
	input := []models.StudentRecord{
		{ID: "3", Name: "王", PickCount: 0},
		{ID: "1", Name: "李", PickCount: 4},
		{ID: "2", Name: "张", PickCount: 1},
	}

	sorted := cmp.Sort(input)

	assert.Equal(t, []string{"1", "2", "3"}, ids(sorted))
	assert.Equal(t, "3", input[0].ID)
}

func ids(students []models.StudentRecord) []string {
	out := make([]string, 0, len(students))
	for _, s := range students {
		out = append(out, s.ID)
	}
	return out
}
