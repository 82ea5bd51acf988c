package scanner

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pborges/logsim/internal/names"
)

// Vocabulary holds the symbol tables the scanner classifies against. Only
// Names grows while scanning; the other three are closed sets.
type Vocabulary struct {
	Names       *names.Table
	Keywords    *names.Table
	DeviceTypes *names.Table
	Punctuation *names.Table
}

func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Names:       names.New(),
		Keywords:    names.Keywords(),
		DeviceTypes: names.DeviceTypes(),
		Punctuation: names.Punctuation(),
	}
}

// Error is a lexical fault. There is no recovery from it.
type Error struct {
	Line   int
	Column int
	Char   rune
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d:%d: character %q not supported", e.Line, e.Column, e.Char)
}

const eof rune = -1

// Scanner turns a circuit definition into tokens, one per call to Next.
type Scanner struct {
	src   []byte
	vocab Vocabulary

	pos        int  // offset of the next unread byte
	cur        rune // current character or eof
	curOff     int
	line       int
	col        int
	checkpoint int // offset of the start of the current line
}

func New(src []byte, vocab Vocabulary) *Scanner {
	s := &Scanner{
		src:        src,
		vocab:      vocab,
	}
	s.Reset()
	return s
}

// Reset rewinds the read cursor to the start of the source.
func (s *Scanner) Reset() {
	s.pos = 0
	s.line = 1
	s.col = 0
	s.checkpoint = 0
	s.NextCharacter()
}

func (s *Scanner) Vocabulary() Vocabulary { return s.vocab }

// Checkpoint returns the offset of the start of the line being read.
func (s *Scanner) Checkpoint() int { return s.checkpoint }

// NextCharacter advances one character and returns it, or -1 at the end of
// the input.
func (s *Scanner) NextCharacter() rune {
	s.curOff = s.pos
	if s.pos >= len(s.src) {
		s.cur = eof
		s.col++
		return s.cur
	}
	r, size := utf8.DecodeRune(s.src[s.pos:])
	s.pos += size
	s.cur = r
	if r == '\n' {
		s.line++
		s.col = 0
		s.checkpoint = s.pos
	} else {
		s.col++
	}
	return r
}

// SkipInsignificant advances over whitespace and '#' line comments.
func (s *Scanner) SkipInsignificant() {
	for {
		switch s.cur {
		case ' ', '\t', '\n', '\r':
			s.NextCharacter()
		case '#':
			for s.cur != '\n' && s.cur != eof {
				s.NextCharacter()
			}
		default:
			return
		}
	}
}

// readName assumes the current character starts a name.
func (s *Scanner) readName() string {
	var b strings.Builder
	for isNamePart(s.cur) {
		b.WriteRune(s.cur)
		s.NextCharacter()
	}
	return b.String()
}

func (s *Scanner) readNumber() string {
	var b strings.Builder
	for isDigit(s.cur) {
		b.WriteRune(s.cur)
		s.NextCharacter()
	}
	return b.String()
}

// Next returns the next token.
func (s *Scanner) Next() (Token, error) {
	s.SkipInsignificant()
	tok := Token{Line: s.line, Column: s.col, Offset: s.curOff, LineStart: s.checkpoint}

	switch {
	case isNameStart(s.cur):
		name := s.readName()
		if id, ok := s.vocab.Keywords.Query(name); ok {
			tok.Kind, tok.ID = Keyword, id
		} else if id, ok := s.vocab.DeviceTypes.Query(name); ok {
			tok.Kind, tok.ID = DeviceType, id
		} else {
			tok.Kind, tok.ID = Name, s.vocab.Names.Lookup(name)
		}
	case isDigit(s.cur):
		tok.Kind = Number
		tok.ID = atoiSaturate(s.readNumber())
	case s.cur == eof:
		tok.Kind, tok.ID = EOF, EOFID
	default:
		id, ok := s.vocab.Punctuation.Query(string(s.cur))
		if !ok {
			return tok, &Error{Line: tok.Line, Column: tok.Column, Char: s.cur}
		}
		tok.Kind, tok.ID = Punct, id
		c := s.cur
		s.NextCharacter()
		if c == ';' || c == ':' {
			// Statement ends move the checkpoint onto the next statement's line.
			s.SkipInsignificant()
		}
	}
	return tok, nil
}

// Tokens rescans the whole source from the start.
func (s *Scanner) Tokens() ([]Token, error) {
	s.Reset()
	var out []Token
	for {
		tok, err := s.Next()
		if err != nil {
			return out, err
		}
		out = append(out, tok)
		if tok.Kind == EOF {
			return out, nil
		}
	}
}

// Decode returns the source text a token stands for.
func (s *Scanner) Decode(tok Token) string {
	var (
		name string
		ok   bool
	)
	switch tok.Kind {
	case Keyword:
		name, ok = s.vocab.Keywords.Name(tok.ID)
	case DeviceType:
		name, ok = s.vocab.DeviceTypes.Name(tok.ID)
	case Name:
		name, ok = s.vocab.Names.Name(tok.ID)
	case Punct:
		name, ok = s.vocab.Punctuation.Name(tok.ID)
	case Number:
		return strconv.Itoa(tok.ID)
	}
	if !ok {
		return ""
	}
	return name
}

// Line returns the source line starting at offset start, a checkpoint
// recorded in Token.LineStart, without its line break.
func (s *Scanner) Line(start int) string {
	if start < 0 || start > len(s.src) {
		return ""
	}
	rest := s.src[start:]
	if i := bytes.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimRight(string(rest), "\r")
}

func atoiSaturate(digits string) int {
	v, err := strconv.Atoi(digits)
	if err != nil {
		return math.MaxInt
	}
	return v
}

func isNameStart(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_'
}

func isNamePart(r rune) bool {
	return isNameStart(r) || isDigit(r)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
