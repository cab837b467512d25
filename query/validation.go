package query

import (
	"errors"
	"fmt"
)

// Input limits.
const (
	// MaxExpressionLength is the maximum allowed expression length in bytes
	MaxExpressionLength = 4096

	// MaxTokens is the maximum number of tokens in one expression
	MaxTokens = 512

	// MaxOperands is the maximum number of particle operands per axis
	MaxOperands = 2
)

var (
	// ErrExpressionTooLong is returned when an expression exceeds MaxExpressionLength
	ErrExpressionTooLong = errors.New("expression too long")

	// ErrTooManyTokens is returned when an expression has too many tokens
	ErrTooManyTokens = errors.New("too many tokens in expression")

	// ErrSyntax is returned for malformed segment structure
	ErrSyntax = errors.New("syntax error")

	ErrUnknownSegment    = errors.New("unknown segment")
	ErrDuplicateSegment  = errors.New("duplicate segment")
	ErrUnknownKey        = errors.New("unknown key")
	ErrUnknownFunction   = errors.New("unknown function")
	ErrUnknownParticle   = errors.New("unknown particle")
	ErrUnknownTier       = errors.New("unknown working point")
	ErrUnknownComparison = errors.New("unknown comparison")
	ErrInvalidNumber     = errors.New("invalid number")
	ErrMissingFunction   = errors.New("missing function segment")
	ErrMissingParticle   = errors.New("missing particle operand")
	ErrMissingValue      = errors.New("missing function value")
	ErrMissingCut        = errors.New("missing cut segment")
	ErrTooManyParticles  = errors.New("too many particle operands")
	ErrAxisWithoutHist   = errors.New("y axis requires a histogram output")
)

// ParseError describes a rejected expression.
type ParseError struct {
	Expr    string
	Segment string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Segment == "" {
		return fmt.Sprintf("invalid expression %q: %v", e.Expr, e.Err)
	}
	return fmt.Sprintf("invalid expression %q at segment %q: %v", e.Expr, e.Segment, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidateExpression checks the raw input size.
func ValidateExpression(expr string) error {
	if len(expr) > MaxExpressionLength {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrExpressionTooLong, len(expr), MaxExpressionLength)
	}
	return nil
}

// ValidateTokens validates token count
func ValidateTokens(tokens []Token) error {
	if len(tokens) > MaxTokens {
		return fmt.Errorf("%w: %d tokens (max %d)", ErrTooManyTokens, len(tokens), MaxTokens)
	}
	return nil
}
