package compiler

import (
	"strings"

	"github.com/aretw0/lobster/pkg/domain"
)

// token is one shell-like word of a stage.
type token struct {
	text   string
	quoted bool // the word starts with a quoted or escaped character; such words are never flags
	offset int
}

// segment is the text between two top-level pipes.
type segment struct {
	raw    string
	offset int
	tokens []token
}

// lex splits text into pipe-separated segments of words. Quote state is tracked
// across the whole expression, so a pipe inside quotes never splits a stage.
//
// Quoting rules follow POSIX shells: single quotes are literal, double quotes
// honour \" and \\, and a backslash outside quotes escapes the next byte.
func lex(text string) ([]segment, error) {
	var (
		segs       []segment
		cur        = segment{offset: 0}
		b          strings.Builder
		inTok      bool
		tokQuoted  bool
		tokStart   int
		quote      byte
		quoteStart int
	)

	startTok := func(i int, quoted bool) {
		if !inTok {
			inTok = true
			tokStart = i
			tokQuoted = quoted
		}
	}
	flushTok := func() {
		if !inTok {
			return
		}
		cur.tokens = append(cur.tokens, token{text: b.String(), quoted: tokQuoted, offset: tokStart})
		b.Reset()
		inTok = false
		tokQuoted = false
	}
	flushSeg := func(end int) error {
		flushTok()
		raw := text[cur.offset:end]
		trimmed := strings.TrimSpace(raw)
		offset := cur.offset + (len(raw) - len(strings.TrimLeft(raw, " \t\r\n")))
		if len(cur.tokens) == 0 {
			return &domain.ParseError{Stage: len(segs) + 1, Raw: trimmed, Offset: offset, Msg: "empty stage"}
		}
		cur.raw = trimmed
		cur.offset = offset
		segs = append(segs, cur)
		return nil
	}

	for i := 0; i < len(text); i++ {
		c := text[i]

		switch quote {
		case '\'':
			if c == '\'' {
				quote = 0
			} else {
				b.WriteByte(c)
			}
			continue
		case '"':
			switch {
			case c == '"':
				quote = 0
			case c == '\\' && i+1 < len(text) && (text[i+1] == '"' || text[i+1] == '\\'):
				b.WriteByte(text[i+1])
				i++
			default:
				b.WriteByte(c)
			}
			continue
		}

		switch {
		case c == '\\':
			if i+1 >= len(text) {
				return nil, &domain.ParseError{Stage: len(segs) + 1, Raw: strings.TrimSpace(text[cur.offset:]), Offset: i, Msg: "trailing escape character"}
			}
			startTok(i, true)
			b.WriteByte(text[i+1])
			i++
		case c == '\'' || c == '"':
			startTok(i, true)
			quote = c
			quoteStart = i
		case c == '|':
			if err := flushSeg(i); err != nil {
				return nil, err
			}
			cur = segment{offset: i + 1}
		case isSpace(c):
			flushTok()
		default:
			startTok(i, false)
			b.WriteByte(c)
		}
	}

	if quote != 0 {
		return nil, &domain.ParseError{
			Stage:  len(segs) + 1,
			Raw:    strings.TrimSpace(text[cur.offset:]),
			Offset: quoteStart,
			Msg:    "unterminated " + quoteName(quote) + " quote",
		}
	}
	if err := flushSeg(len(text)); err != nil {
		return nil, err
	}
	return segs, nil
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func quoteName(q byte) string {
	if q == '\'' {
		return "single"
	}
	return "double"
}
