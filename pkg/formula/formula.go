package formula

import (
	"fmt"
	"regexp"
	"strings"
)

// FormulaError reports a malformed model specification.
type FormulaError struct {
	Spec   string
	Reason string
}

func (e *FormulaError) Error() string {
	return fmt.Sprintf("formula: invalid specification %q: %s", e.Spec, e.Reason)
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
var catPattern = regexp.MustCompile(`^C\(\s*([A-Za-z_][A-Za-z0-9_.]*)\s*\)$`)

// Component is a single variable inside a term. Categorical components keep
// the raw C(x) token so that design-matrix column names round-trip through
// the level matcher unchanged.
type Component struct {
	Raw         string
	Var         string
	Categorical bool
}

// Term is a covariate term, a product of one or more components.
type Term struct {
	Components []Component
}

func (t Term) Name() string {
	parts := make([]string, len(t.Components))
	for i, c := range t.Components {
		parts[i] = c.Raw
	}
	return strings.Join(parts, ":")
}

// Formula is a parsed model specification of the shape
// "Y ~ X1 + X2*X3 | f1 + f2".
type Formula struct {
	Spec         string
	Response     string
	Terms        []Term
	FixedEffects []string
	Intercept    bool
}

// HasFixedEffects reports whether any factor is absorbed.
func (f *Formula) HasFixedEffects() bool {
	return len(f.FixedEffects) > 0
}

// Variables returns every frame column the formula references, response
// first, without duplicates.
func (f *Formula) Variables() []string {
	seen := make(map[string]bool)
	out := []string{f.Response}
	seen[f.Response] = true
	for _, t := range f.Terms {
		for _, c := range t.Components {
			if !seen[c.Var] {
				seen[c.Var] = true
				out = append(out, c.Var)
			}
		}
	}
	for _, fe := range f.FixedEffects {
		if !seen[fe] {
			seen[fe] = true
			out = append(out, fe)
		}
	}
	return out
}

// Parse parses a two-sided specification with an optional fixed-effects
// part. Supported term grammar: plain variables, C(x) categorical terms,
// a:b interactions and a*b product expansion.
func Parse(spec string) (*Formula, error) {
	parts := strings.Split(spec, "|")
	if len(parts) > 2 {
		return nil, &FormulaError{Spec: spec, Reason: "at most one fixed-effects part is supported"}
	}

	sides := strings.Split(parts[0], "~")
	if len(sides) != 2 {
		return nil, &FormulaError{Spec: spec, Reason: "expected exactly one ~"}
	}

	response := strings.TrimSpace(sides[0])
	if !identPattern.MatchString(response) {
		return nil, &FormulaError{Spec: spec, Reason: fmt.Sprintf("invalid response %q", response)}
	}

	f := &Formula{
		Spec:      spec,
		Response:  response,
		Intercept: true,
	}

	if err := f.parseCovariates(strings.TrimSpace(sides[1])); err != nil {
		return nil, err
	}

	if len(parts) == 2 {
		if err := f.parseFixedEffects(strings.TrimSpace(parts[1])); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *Formula) parseCovariates(rhs string) error {
	if rhs == "" {
		return &FormulaError{Spec: f.Spec, Reason: "empty covariate part"}
	}
	seen := make(map[string]bool)
	for _, raw := range strings.Split(rhs, "+") {
		tok := strings.TrimSpace(raw)
		switch tok {
		case "":
			return &FormulaError{Spec: f.Spec, Reason: "empty covariate term"}
		case "1":
			continue
		case "0", "-1":
			f.Intercept = false
			continue
		}
		terms, err := f.expandTerm(tok)
		if err != nil {
			return err
		}
		for _, t := range terms {
			if name := t.Name(); !seen[name] {
				seen[name] = true
				f.Terms = append(f.Terms, t)
			}
		}
	}
	return nil
}

// expandTerm turns a*b into a + b + a:b (all non-empty component subsets,
// smallest first) and leaves a:b products alone.
func (f *Formula) expandTerm(tok string) ([]Term, error) {
	if strings.Contains(tok, "*") {
		comps, err := f.parseComponents(tok, "*")
		if err != nil {
			return nil, err
		}
		var terms []Term
		n := len(comps)
		for size := 1; size <= n; size++ {
			for mask := 1; mask < 1<<n; mask++ {
				var sub []Component
				for i := 0; i < n; i++ {
					if mask&(1<<i) != 0 {
						sub = append(sub, comps[i])
					}
				}
				if len(sub) == size {
					terms = append(terms, Term{Components: sub})
				}
			}
		}
		return terms, nil
	}
	comps, err := f.parseComponents(tok, ":")
	if err != nil {
		return nil, err
	}
	return []Term{{Components: comps}}, nil
}

func (f *Formula) parseComponents(tok, sep string) ([]Component, error) {
	var comps []Component
	for _, raw := range strings.Split(tok, sep) {
		c := strings.TrimSpace(raw)
		if m := catPattern.FindStringSubmatch(c); m != nil {
			comps = append(comps, Component{Raw: "C(" + m[1] + ")", Var: m[1], Categorical: true})
			continue
		}
		if !identPattern.MatchString(c) {
			return nil, &FormulaError{Spec: f.Spec, Reason: fmt.Sprintf("invalid term component %q", c)}
		}
		comps = append(comps, Component{Raw: c, Var: c})
	}
	if len(comps) == 0 {
		return nil, &FormulaError{Spec: f.Spec, Reason: fmt.Sprintf("empty term %q", tok)}
	}
	return comps, nil
}

func (f *Formula) parseFixedEffects(part string) error {
	if part == "" {
		return &FormulaError{Spec: f.Spec, Reason: "empty fixed-effects part"}
	}
	seen := make(map[string]bool)
	for _, raw := range strings.Split(part, "+") {
		tok := strings.TrimSpace(raw)
		if !identPattern.MatchString(tok) {
			return &FormulaError{Spec: f.Spec, Reason: fmt.Sprintf("invalid fixed-effect factor %q", tok)}
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		f.FixedEffects = append(f.FixedEffects, tok)
	}
	return nil
}
