package compiler

import (
	"sort"
	"strings"

	"github.com/aretw0/lobster/pkg/domain"
)

// Parser is responsible for converting pipeline text into stage descriptors.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse converts one pipeline expression into its ordered stages.
//
// Grammar: stage ('|' stage)*, stage := name (flag | word)*,
// flag := '--' ident ['=' value | value]. A flag followed by another flag or by
// the end of the stage is boolean true. Bare words are collected, in order,
// under domain.PositionalKey. Flag values are kept as strings; commands coerce
// them on read.
func (p *Parser) Parse(text string) ([]domain.Stage, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &domain.ParseError{Msg: "empty pipeline"}
	}

	segs, err := lex(text)
	if err != nil {
		return nil, err
	}

	stages := make([]domain.Stage, 0, len(segs))
	for i, seg := range segs {
		stage, err := parseStage(i+1, seg)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

// Parse is a convenience wrapper around NewParser().Parse.
func Parse(text string) ([]domain.Stage, error) {
	return NewParser().Parse(text)
}

func parseStage(index int, seg segment) (domain.Stage, error) {
	fail := func(tok token, msg string) error {
		return &domain.ParseError{Stage: index, Raw: seg.raw, Offset: tok.offset, Msg: msg}
	}

	head := seg.tokens[0]
	if head.text == "" {
		return domain.Stage{}, fail(head, "empty command name")
	}
	if isFlag(head) {
		return domain.Stage{}, fail(head, "expected a command name, got flag "+head.text)
	}

	args := domain.Args{}
	positional := []string{}

	rest := seg.tokens[1:]
	for j := 0; j < len(rest); j++ {
		tok := rest[j]
		if !isFlag(tok) {
			positional = append(positional, tok.text)
			continue
		}

		body := tok.text[2:]
		name, value, hasValue := strings.Cut(body, "=")
		if !ValidFlagName(name) {
			return domain.Stage{}, fail(tok, "malformed flag "+tok.text)
		}

		switch {
		case hasValue:
			args[name] = domain.StringValue(value)
		case j+1 < len(rest) && !isFlag(rest[j+1]):
			args[name] = domain.StringValue(rest[j+1].text)
			j++
		default:
			args[name] = domain.BoolValue(true)
		}
	}
	args[domain.PositionalKey] = domain.ListValue(positional...)

	return domain.Stage{Name: head.text, Args: args, Raw: seg.raw}, nil
}

// isFlag reports whether an unquoted word starts with "--".
func isFlag(tok token) bool {
	return !tok.quoted && strings.HasPrefix(tok.text, "--")
}

// ValidFlagName reports whether name may follow "--" in a pipeline.
func ValidFlagName(name string) bool {
	if name == "" || name == domain.PositionalKey {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-' || c == '_' || c == '.':
			if i == 0 && c == '-' {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Quote renders s as a single pipeline word that parses back to exactly s.
func Quote(s string) string {
	if s != "" && !strings.HasPrefix(s, "--") && isSafeWord(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func isSafeWord(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case strings.IndexByte("-_.,:/@%+=#~", c) >= 0:
		default:
			return false
		}
	}
	return true
}

// Format renders stages back into pipeline text. Positional words come first,
// then flags sorted by name, so that bare boolean flags never swallow a word.
// Parsing the result yields the same descriptors (modulo Raw) for any stages
// produced by Parse.
func Format(stages []domain.Stage) string {
	parts := make([]string, 0, len(stages))
	for _, st := range stages {
		words := []string{Quote(st.Name)}
		for _, w := range st.Args.Positional() {
			words = append(words, Quote(w))
		}

		names := make([]string, 0, len(st.Args))
		for k := range st.Args {
			if k != domain.PositionalKey {
				names = append(names, k)
			}
		}
		sort.Strings(names)

		for _, k := range names {
			v := st.Args[k]
			if v.Kind == domain.KindBool && v.Bool {
				words = append(words, "--"+k)
				continue
			}
			words = append(words, "--"+k+"="+Quote(v.Text()))
		}
		parts = append(parts, strings.Join(words, " "))
	}
	return strings.Join(parts, " | ")
}
