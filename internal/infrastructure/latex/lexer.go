package latex

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokLetter
	tokCommand
	tokChar
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokCommand:
		return `\` + t.text
	default:
		return t.text
	}
}

const punctuation = "+-*/^_=<>()[]{}|,!'.:;"

// normalizeInput folds unicode compatibility forms (fullwidth digits,
// mathematical alphanumerics) and rewrites unicode operators as commands.
func (c *Catalog) normalizeInput(src string) string {
	return c.replacer.Replace(norm.NFKC.String(src))
}

func (c *Catalog) tokenize(src string) ([]token, error) {
	runes := []rune(src)
	toks := make([]token, 0, len(runes))

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r) || r == '~':
			i++

		case r == '\\':
			if i+1 >= len(runes) {
				return nil, &SyntaxError{Pos: i, Msg: "trailing backslash"}
			}
			start := i
			i++
			var name string
			if isASCIILetter(runes[i]) {
				j := i
				for j < len(runes) && isASCIILetter(runes[j]) {
					j++
				}
				name = string(runes[i:j])
				i = j
			} else {
				name = string(runes[i])
				i++
			}
			if c.isIgnored(name) {
				continue
			}
			toks = append(toks, token{kind: tokCommand, text: name, pos: start})

		case unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			start := i
			j, dots := i, 0
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				if runes[j] == '.' {
					if j+1 >= len(runes) || !unicode.IsDigit(runes[j+1]) {
						break
					}
					dots++
				}
				j++
			}
			lit := string(runes[start:j])
			if dots > 1 {
				return nil, &ValueError{Pos: start, Msg: fmt.Sprintf("invalid numeric literal %q", lit)}
			}
			toks = append(toks, token{kind: tokNumber, text: lit, pos: start})
			i = j

		case unicode.IsLetter(r):
			toks = append(toks, token{kind: tokLetter, text: string(r), pos: i})
			i++

		case strings.ContainsRune(punctuation, r):
			toks = append(toks, token{kind: tokChar, text: string(r), pos: i})
			i++

		default:
			return nil, &SyntaxError{Pos: i, Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}

	toks = append(toks, token{kind: tokEOF, pos: len(runes)})
	return toks, nil
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// normalizeNumber strips redundant leading zeros so 007 and 7 compare equal.
func normalizeNumber(lit string) string {
	intPart, frac, hasFrac := strings.Cut(lit, ".")
	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}
	if !hasFrac {
		return intPart
	}
	return intPart + "." + frac
}
