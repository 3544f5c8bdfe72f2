package sqleval

import (
	"fmt"
	"strings"
)

type tokenType string

const (
	tEnd        tokenType = "end"
	tString     tokenType = "string"
	tIdentifier tokenType = "identifier"
	tNumber     tokenType = "number"
	tKeyword    tokenType = "keyword"
	tOp         tokenType = "operator"
	tError      tokenType = "error"
)

type token struct {
	t   tokenType
	val string
}

func (t token) String() string {
	if t.t == tEnd {
		return "end of query"
	}
	return fmt.Sprintf("[%s %s]", t.t, t.val)
}

type tokenizer struct {
	b     *parsebuf
	peeks []token
	// err sticks once scanning fails, the buffer is in an unknown state.
	err error
}

func (tr *tokenizer) unget(t token) {
	tr.peeks = append(tr.peeks, t)
}

func (tr *tokenizer) peek() token {
	s, err := tr.next()
	if err != nil {
		return token{tError, err.Error()}
	}
	if s.t != tEnd {
		tr.unget(s)
	}
	return s
}

// Longer operators go first so that "<=" isn't read as "<".
var operators = []string{
	"!=", "<>", "<=", ">=", "=", "<", ">", ".", ",",
}
var keywords = []string{
	"select", "as", "from", "where", "and",
}

const identChars = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ_"

func isDigit(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

func (tr *tokenizer) next() (token, error) {
	if len(tr.peeks) > 0 {
		r := tr.peeks[len(tr.peeks)-1]
		tr.peeks = tr.peeks[0 : len(tr.peeks)-1]
		return r, nil
	}
	if tr.err != nil {
		return token{}, tr.err
	}
	tr.b.space()
	if tr.b.peek() == "" {
		return token{tEnd, ""}, nil
	}
	if tr.b.peek() == "'" {
		s, err := readQuote(tr.b, "'")
		if err != nil {
			return token{}, tr.errorf("%v", err)
		}
		return token{tString, s}, nil
	}
	if tr.b.peek() == "\"" {
		s, err := readQuote(tr.b, "\"")
		if err != nil {
			return token{}, tr.errorf("%v", err)
		}
		return token{tIdentifier, s}, nil
	}
	if tr.b.peek() == "-" && isDigit(tr.b.peekAt(1)) {
		tr.b.get()
		return token{tNumber, "-" + tr.b.set("0123456789")}, nil
	}
	if isDigit(tr.b.peek()) {
		return token{tNumber, tr.b.set("0123456789")}, nil
	}
	for _, s := range operators {
		if tr.b.literal(s) {
			return token{tOp, s}, nil
		}
	}

	s := tr.b.set(identChars)
	if s == "" {
		return token{}, tr.errorf("unexpected character %q", tr.b.peek())
	}
	for _, tok := range keywords {
		if strings.ToLower(s) == tok {
			return token{tKeyword, strings.ToUpper(s)}, nil
		}
	}
	return token{tIdentifier, s}, nil
}

func (tr *tokenizer) errorf(format string, args ...any) error {
	line, col := tr.b.position()
	tr.err = fmt.Errorf("%d:%d: %s", line, col, fmt.Sprintf(format, args...))
	return tr.err
}

func (tr *tokenizer) eat(t tokenType, val string) bool {
	p := tr.peek()
	if p.t == t && p.val == val {
		tr.next()
		return true
	}
	return false
}

func (tr *tokenizer) eati(t tokenType, val string) bool {
	p := tr.peek()
	if p.t == t && strings.EqualFold(p.val, val) {
		tr.next()
		return true
	}
	return false
}

func readQuote(b *parsebuf, q string) (string, error) {
	if !b.literal(q) {
		return "", fmt.Errorf("%s expected", q)
	}
	s := strings.Builder{}
	for b.more() {
		if b.literal("\\") {
			s.WriteString(b.get())
			continue
		}
		if b.peek() == q {
			break
		}
		s.WriteString(b.get())
	}
	if !b.literal(q) {
		return s.String(), fmt.Errorf("unterminated %s", q)
	}
	return s.String(), nil
}
