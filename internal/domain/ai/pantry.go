package ai

import "strings"

// Pantry is the ingredient list used as pantry input.
type Pantry []string

// NewPantry adds items in order, so blanks and case-variant repeats are
// dropped.
func NewPantry(items ...string) Pantry {
	p := make(Pantry, 0, len(items))
	for _, item := range items {
		p.Add(item)
	}
	return p
}

// Add appends item unless it is blank or already present, ignoring case.
func (p *Pantry) Add(item string) bool {
	item = strings.TrimSpace(item)
	if item == "" {
		return false
	}
	for _, existing := range *p {
		if strings.EqualFold(existing, item) {
			return false
		}
	}
	*p = append(*p, item)
	return true
}

// RemoveAt drops the item at index; out-of-range indexes are ignored.
func (p *Pantry) RemoveAt(index int) {
	list := *p
	if index < 0 || index >= len(list) {
		return
	}
	*p = append(list[:index:index], list[index+1:]...)
}

// Clear empties the pantry.
func (p *Pantry) Clear() {
	*p = Pantry{}
}
