package design

import "sort"

// Encoding fixes, per categorical base variable, the observed level set and
// the reference level chosen at fit time. It is built once from the
// training data and reused unchanged for every prediction matrix, so new
// data can never shift the reference or introduce new dummy columns.
type Encoding struct {
	levels    map[string][]string
	reference map[string]string
}

func NewEncoding() *Encoding {
	return &Encoding{
		levels:    make(map[string][]string),
		reference: make(map[string]string),
	}
}

// observe registers the level set of a base variable. Levels are sorted and
// the first one becomes the reference.
func (e *Encoding) observe(base string, rowLevels []string) {
	if _, ok := e.levels[base]; ok {
		return
	}
	seen := make(map[string]bool)
	var levels []string
	for _, l := range rowLevels {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		levels = append(levels, l)
	}
	sort.Strings(levels)
	e.levels[base] = levels
	if len(levels) > 0 {
		e.reference[base] = levels[0]
	}
}

func (e *Encoding) Has(base string) bool {
	_, ok := e.levels[base]
	return ok
}

func (e *Encoding) Levels(base string) []string {
	return e.levels[base]
}

func (e *Encoding) Reference(base string) (string, bool) {
	ref, ok := e.reference[base]
	return ref, ok
}

// HasLevel reports whether the level was observed for the base variable at
// fit time.
func (e *Encoding) HasLevel(base, level string) bool {
	for _, l := range e.levels[base] {
		if l == level {
			return true
		}
	}
	return false
}
