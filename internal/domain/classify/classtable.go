// Package classify implements the per-item predictor and the batch aggregator,
// the deterministic core of the analysis pipeline.
package classify

import "errors"

// ErrEmptyClassTable indicates a class table cannot be constructed without classes.
var ErrEmptyClassTable = errors.New("class table requires at least one class")

// ClassTable is the fixed, ordered table of cell-type classes the model
// predicts over. Insertion order is the tie-break order for ranked
// predictions, so the table preserves the order it was configured with.
type ClassTable struct {
	order []string
	index map[string]int
	names map[string]string
}

// NewClassTable builds a class table from an ordered class list and an
// optional display-name mapping. Duplicate codes keep their first position.
func NewClassTable(classes []string, displayNames map[string]string) (*ClassTable, error) {
	if len(classes) == 0 {
		return nil, ErrEmptyClassTable
	}

	t := &ClassTable{
		index: make(map[string]int, len(classes)),
		names: displayNames,
	}
	for _, c := range classes {
		if _, ok := t.index[c]; ok {
			continue
		}
		t.index[c] = len(t.order)
		t.order = append(t.order, c)
	}
	return t, nil
}

// Len returns the number of classes in the table.
func (t *ClassTable) Len() int {
	return len(t.order)
}

// Classes returns the class codes in table order.
func (t *ClassTable) Classes() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Index returns the table position of a class and whether it exists.
func (t *ClassTable) Index(class string) (int, bool) {
	i, ok := t.index[class]
	return i, ok
}

// DisplayName returns the clinician-facing name for a class code, falling
// back to the code itself for unknown classes.
func (t *ClassTable) DisplayName(class string) string {
	if name, ok := t.names[class]; ok {
		return name
	}
	return class
}

// classSet builds a set from a configured class list. Set semantics mean
// duplicated entries in configuration cannot double count probability mass.
func classSet(classes []string) map[string]struct{} {
	set := make(map[string]struct{}, len(classes))
	for _, c := range classes {
		set[c] = struct{}{}
	}
	return set
}
