package state

import (
	"cmp"
	"slices"

	"pickme/internal/models"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparator orders students by pick count (desc), group (asc), then name and
// id under the locale's collation.
type Comparator struct {
	collator *collate.Collator
}

func NewComparator(tag language.Tag) *Comparator {
	return &Comparator{collator: collate.New(tag)}
}

func (c *Comparator) Compare(a, b models.StudentRecord) int {
	if diff := cmp.Compare(b.PickCount, a.PickCount); diff != 0 {
		return diff
	}
	if diff := cmp.Compare(a.Group, b.Group); diff != 0 {
		return diff
	}
	if diff := c.collator.CompareString(a.Name, b.Name); diff != 0 {
		return diff
	}
	return c.collator.CompareString(a.ID, b.ID)
}

// Sort returns a sorted copy of students. A Comparator is not safe for
// concurrent use.
func (c *Comparator) Sort(students []models.StudentRecord) []models.StudentRecord {
	sorted := slices.Clone(students)
	slices.SortStableFunc(sorted, c.Compare)
	return sorted
}
