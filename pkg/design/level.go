package design

import (
	"fmt"
	"regexp"
)

// ParseError reports a categorical column identifier that does not match
// the expected base[T.level] nesting.
type ParseError struct {
	Identifier string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("design: cannot parse categorical identifier %q", e.Identifier)
}

// The base match is lazy and the level match is greedy, so the split lands
// on the outermost bracket pair. A level that is itself a bracketed list
// stays whole.
var levelPattern = regexp.MustCompile(`^(.+?)\[(?:T\.)?(.*)\]$`)

// ExtractVariableLevel splits an encoded dummy-column identifier such as
// "C(f3)[T.1.0]" into its base variable ("C(f3)") and level text ("1.0").
// The level keeps its literal textual form so it can be matched exactly
// against raw values in new data.
func ExtractVariableLevel(identifier string) (string, string, error) {
	m := levelPattern.FindStringSubmatch(identifier)
	if m == nil {
		return "", "", &ParseError{Identifier: identifier}
	}
	return m[1], m[2], nil
}

// DummyName renders the design-matrix column name for a level of a
// categorical base variable, in treatment coding.
func DummyName(base, level string) string {
	return fmt.Sprintf("%s[T.%s]", base, level)
}
