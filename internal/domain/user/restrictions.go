package user

import (
	"fmt"
	"strings"
)

// Restrictions is the ordered list of ingredients a user avoids.
type Restrictions []string

// Add appends item unless it is blank or already present (exact match).
// It reports whether the list changed.
func (r *Restrictions) Add(item string) bool {
	item = strings.TrimSpace(item)
	if item == "" || r.Contains(item) {
		return false
	}
	*r = append(*r, item)
	return true
}

// Contains reports whether item is in the list.
func (r Restrictions) Contains(item string) bool {
	for _, v := range r {
		if v == item {
			return true
		}
	}
	return false
}

// StaleIndexError reports that index no longer holds the expected item.
type StaleIndexError struct {
	Index    int
	Expected string
	Actual   string
}

func (e *StaleIndexError) Error() string {
	return fmt.Sprintf("restriction at index %d is %q, expected %q", e.Index, e.Actual, e.Expected)
}

// RemoveAt deletes the item at index. When expected is non-nil the item at
// index must equal it; otherwise a *StaleIndexError is returned and the list
// is untouched. Clients send the value they saw so a concurrent Add that
// shifted positions cannot make them delete the wrong entry.
func (r *Restrictions) RemoveAt(index int, expected *string) (string, error) {
	list := *r
	if index < 0 || index >= len(list) {
		return "", ErrRestrictionIndex
	}
	actual := list[index]
	if expected != nil && *expected != actual {
		return "", &StaleIndexError{Index: index, Expected: *expected, Actual: actual}
	}
	out := make(Restrictions, 0, len(list)-1)
	out = append(out, list[:index]...)
	out = append(out, list[index+1:]...)
	*r = out
	return actual, nil
}
