package query

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// expandShorthand rewrites a prefix-less segment such as "pt_e1",
// "n_bj_m" or "dnn_500" into a function clause and operand clauses.
// Underscore separated parts after the function name are, in order of
// preference: a number (the function value), a particle name, a working
// point applying to the previous particle, or a particle name followed by
// its 1-based index.
func (c *Compiler) expandShorthand(word string) (Clause, []Clause, error) {
	parts := strings.Split(word, "_")
	fn := Clause{{Key: "n", Value: parts[0]}}
	var ops []Clause

	for _, part := range parts[1:] {
		if part == "" {
			return nil, nil, fmt.Errorf("%w: empty part in %q", ErrSyntax, word)
		}
		if _, err := strconv.ParseFloat(part, 64); err == nil {
			fn = append(fn, Item{Key: "v", Value: part})
			continue
		}
		if _, ok := c.tables.Particle(part); ok {
			ops = append(ops, Clause{{Key: "n", Value: part}})
			continue
		}
		if _, ok := c.tables.Tier(part); ok && len(ops) > 0 {
			last := len(ops) - 1
			ops[last] = append(ops[last], Item{Key: "wp", Value: part})
			continue
		}
		name, idx := splitOrdinal(part)
		if _, ok := c.tables.Particle(name); ok && idx != "" {
			ops = append(ops, Clause{{Key: "n", Value: name}, {Key: "i", Value: idx}})
			continue
		}
		return nil, nil, fmt.Errorf("%w: %q in %q", ErrUnknownParticle, part, word)
	}
	return fn, ops, nil
}

// splitOrdinal splits "e12" into "e" and "12".
func splitOrdinal(s string) (string, string) {
	i := len(s)
	for i > 0 && unicode.IsDigit(rune(s[i-1])) {
		i--
	}
	return s[:i], s[i:]
}
