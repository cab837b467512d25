package query

import (
	"fmt"
	"strings"
)

// Item is one key=value pair of a clause. A bare word has an empty Key.
type Item struct {
	Key   string
	Value string
}

// Clause is a comma separated list of items.
type Clause []Item

// Segment is one '/' separated part of an expression. Shorthand segments
// have an empty Prefix and a single bare item.
type Segment struct {
	Prefix  string
	Clauses []Clause
}

// String renders the segment back into expression syntax.
func (s Segment) String() string {
	var b strings.Builder
	if s.Prefix != "" {
		b.WriteString(s.Prefix)
		b.WriteByte(':')
	}
	for i, c := range s.Clauses {
		if i > 0 {
			b.WriteByte('~')
		}
		for j, it := range c {
			if j > 0 {
				b.WriteByte(',')
			}
			if it.Key != "" {
				b.WriteString(it.Key)
				b.WriteByte('=')
			}
			b.WriteString(it.Value)
		}
	}
	return b.String()
}

// Parser splits a token stream into segments.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a new parser
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// current returns the current token
func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

// advance moves to the next token
func (p *Parser) advance() {
	p.pos++
}

// expect checks if current token matches expected type and advances
func (p *Parser) expect(tokType TokenType) (Token, error) {
	tok := p.current()
	if tok.Type != tokType {
		return tok, fmt.Errorf("%w: expected %v, got %v", ErrSyntax, tokType, tok.Type)
	}
	p.advance()
	return tok, nil
}

// Parse tokenizes and parses an expression into segments.
func Parse(expr string) ([]Segment, error) {
	if err := ValidateExpression(expr); err != nil {
		return nil, err
	}

	tokens := Tokenize(expr)
	if err := ValidateTokens(tokens); err != nil {
		return nil, err
	}

	parser := NewParser(tokens)
	segments, err := parser.parseExpression()
	if err != nil {
		return nil, err
	}
	return segments, nil
}

func (p *Parser) parseExpression() ([]Segment, error) {
	var segments []Segment
	for {
		seg, err := p.parseSegment()
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)

		switch tok := p.current(); tok.Type {
		case TokenSlash:
			p.advance()
		case TokenEOF:
			return segments, nil
		case TokenError:
			return nil, fmt.Errorf("%w: invalid character %q", ErrSyntax, tok.Value)
		default:
			return nil, fmt.Errorf("%w: unexpected %v after segment %q", ErrSyntax, tok.Type, seg.String())
		}
	}
}

func (p *Parser) parseSegment() (Segment, error) {
	word, err := p.expect(TokenWord)
	if err != nil {
		return Segment{}, err
	}

	if p.current().Type != TokenColon {
		return Segment{Clauses: []Clause{{{Value: word.Value}}}}, nil
	}
	p.advance()

	seg := Segment{Prefix: word.Value}
	if p.atSegmentEnd() {
		return seg, nil
	}

	for {
		clause, err := p.parseClause()
		if err != nil {
			return Segment{}, err
		}
		seg.Clauses = append(seg.Clauses, clause)
		if p.current().Type != TokenTilde {
			return seg, nil
		}
		p.advance()
	}
}

func (p *Parser) parseClause() (Clause, error) {
	var clause Clause
	for {
		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		clause = append(clause, item)
		if p.current().Type != TokenComma {
			return clause, nil
		}
		p.advance()
	}
}

func (p *Parser) parseItem() (Item, error) {
	word, err := p.expect(TokenWord)
	if err != nil {
		return Item{}, err
	}
	if p.current().Type != TokenEqual {
		return Item{Value: word.Value}, nil
	}
	p.advance()

	// "wp=" leaves the value empty
	if p.current().Type != TokenWord {
		return Item{Key: word.Value}, nil
	}
	value := p.current()
	p.advance()
	return Item{Key: word.Value, Value: value.Value}, nil
}

func (p *Parser) atSegmentEnd() bool {
	switch p.current().Type {
	case TokenSlash, TokenEOF:
		return true
	}
	return false
}
