package latex

import "fmt"

// SyntaxError reports malformed LaTeX. Pos is a rune offset into the
// normalised input.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s at position %d", e.Msg, e.Pos)
}

// ValueError reports well-formed LaTeX carrying an unusable value, such as a
// malformed numeric literal or an empty operand.
type ValueError struct {
	Pos int
	Msg string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s at position %d", e.Msg, e.Pos)
}
