package scanner

import "fmt"

// Kind classifies a token.
type Kind int

const (
	Keyword Kind = iota
	Name
	DeviceType
	Number
	Punct
	EOF
)

func (k Kind) String() string {
	switch k {
	case Keyword:
		return "KEYWORD"
	case Name:
		return "NAME"
	case DeviceType:
		return "DEVICE"
	case Number:
		return "NUMBER"
	case Punct:
		return "PUNCT"
	case EOF:
		return "EOF"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// EOFID is the id carried by the end-of-file token.
const EOFID = -1

// Token is one lexical unit. ID is the interned symbol id for keywords,
// device types and names, the literal value for numbers, and the id in the
// punctuation set for punctuation.
type Token struct {
	Kind      Kind
	ID        int
	Line      int // 1-based
	Column    int // 1-based
	Offset    int // byte offset of the first character
	LineStart int // checkpoint when the token began: offset of its line
}

// Position locates a token for diagnostics.
type Position struct {
	Line   int
	Column int
}

func (t Token) Pos() Position { return Position{Line: t.Line, Column: t.Column} }

func (p Position) String() string { return fmt.Sprintf("%d:%d", p.Line, p.Column) }
