// Splits query text into statements and tokens.

package query

import (
	"fmt"
	"strconv"
	"strings"
)

type tokenKind uint8

const (
	tokenWord tokenKind = iota
	tokenQuoted
	tokenJSON
)

type token struct {
	kind tokenKind
	text string
}

type statement struct {
	line int
	text string
	toks []token
}

// lex splits src in statements. Statements end at a newline or a ';' outside
// of quotes and JSON objects. '#' starts a comment running to the end of the
// line.
func lex(src string) ([]statement, error) {
	var out []statement
	var cur statement
	line := 1
	start := 0
	flush := func(end int) {
		if len(cur.toks) > 0 {
			cur.text = strings.TrimSpace(src[start:end])
			out = append(out, cur)
		}
		cur = statement{}
		start = end + 1
	}
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\n' || c == ';':
			flush(i)
			if c == '\n' {
				line++
			}
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		default:
			if len(cur.toks) == 0 {
				cur.line = line
				start = i
			}
			var tok token
			var j int
			var err error
			switch c {
			case '"':
				j, err = scanString(src, i)
				if err == nil {
					tok.kind = tokenQuoted
					tok.text, err = strconv.Unquote(src[i:j])
				}
			case '{':
				j, err = scanJSON(src, i)
				tok.kind = tokenJSON
				if err == nil {
					tok.text = src[i:j]
					line += strings.Count(tok.text, "\n")
				}
			default:
				j = i
				for j < len(src) && !strings.ContainsRune(" \t\r\n;", rune(src[j])) {
					j++
				}
				tok.text = src[i:j]
			}
			if err != nil {
				return nil, &Error{Phase: PhaseParse, Line: line, Statement: strings.TrimSpace(src[start:]), Err: err}
			}
			cur.toks = append(cur.toks, tok)
			i = j
		}
	}
	flush(len(src))
	return out, nil
}

// scanString returns the index following the closing quote of the string
// starting at src[i].
func scanString(src string, i int) (int, error) {
	for j := i + 1; j < len(src); j++ {
		switch src[j] {
		case '\\':
			j++
		case '"':
			return j + 1, nil
		case '\n':
			return 0, fmt.Errorf("%w: unterminated string", ErrSyntax)
		}
	}
	return 0, fmt.Errorf("%w: unterminated string", ErrSyntax)
}

// scanJSON returns the index following the brace closing the object starting
// at src[i].
func scanJSON(src string, i int) (int, error) {
	depth := 0
	inString := false
	for j := i; j < len(src); j++ {
		c := src[j]
		if inString {
			switch c {
			case '\\':
				j++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return j + 1, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: unterminated JSON object", ErrSyntax)
}
