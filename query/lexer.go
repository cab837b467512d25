package query

import (
	"strings"
	"unicode"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenWord  TokenType = iota
	TokenColon           // :
	TokenSlash           // /
	TokenComma           // ,
	TokenEqual           // =
	TokenTilde           // ~

	TokenEOF
	TokenError
)

func (t TokenType) String() string {
	switch t {
	case TokenWord:
		return "word"
	case TokenColon:
		return "':'"
	case TokenSlash:
		return "'/'"
	case TokenComma:
		return "','"
	case TokenEqual:
		return "'='"
	case TokenTilde:
		return "'~'"
	case TokenEOF:
		return "end of expression"
	default:
		return "invalid character"
	}
}

// Token represents a lexical token
type Token struct {
	Type  TokenType
	Value string
}

// Lexer tokenizes expression strings
type Lexer struct {
	input string
	pos   int
	ch    rune
}

// NewLexer creates a new lexer
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar reads the next character
func (l *Lexer) readChar() {
	if l.pos >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = rune(l.input[l.pos])
	}
	l.pos++
}

// atEOF reports whether the input is exhausted. A NUL byte inside the
// input is a character like any other and does not end it.
func (l *Lexer) atEOF() bool {
	return l.pos > len(l.input)
}

func (l *Lexer) skipWhitespace() {
	for unicode.IsSpace(l.ch) {
		l.readChar()
	}
}

func isDelimiter(ch rune) bool {
	switch ch {
	case ':', '/', ',', '=', '~':
		return true
	}
	return false
}

// readWord reads a run of non-delimiter characters. Words carry names,
// numbers and labels alike; the compiler decides what they mean.
func (l *Lexer) readWord() string {
	var result strings.Builder
	for !l.atEOF() && l.ch != 0 && l.ch <= unicode.MaxASCII && !isDelimiter(l.ch) && !unicode.IsSpace(l.ch) {
		result.WriteRune(l.ch)
		l.readChar()
	}
	return result.String()
}

// NextToken returns the next token
func (l *Lexer) NextToken() Token {
	l.skipWhitespace()

	var tok Token
	if l.atEOF() {
		return Token{Type: TokenEOF}
	}
	switch l.ch {
	case 0:
		tok = Token{Type: TokenError, Value: string(l.ch)}
		l.readChar()
	case ':':
		tok = Token{Type: TokenColon, Value: ":"}
		l.readChar()
	case '/':
		tok = Token{Type: TokenSlash, Value: "/"}
		l.readChar()
	case ',':
		tok = Token{Type: TokenComma, Value: ","}
		l.readChar()
	case '=':
		tok = Token{Type: TokenEqual, Value: "="}
		l.readChar()
	case '~':
		tok = Token{Type: TokenTilde, Value: "~"}
		l.readChar()
	default:
		if l.ch > unicode.MaxASCII {
			tok = Token{Type: TokenError, Value: string(l.ch)}
			l.readChar()
		} else {
			tok = Token{Type: TokenWord, Value: l.readWord()}
		}
	}
	return tok
}

// Tokenize converts an expression string into tokens, ending with TokenEOF
// or the first TokenError.
func Tokenize(input string) []Token {
	lexer := NewLexer(input)
	var tokens []Token

	for {
		tok := lexer.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF || tok.Type == TokenError {
			break
		}
	}
	return tokens
}
