package diff

import (
	"fmt"

	"github.com/pmezard/go-difflib/difflib"
)

// Engine aligns two versions of a file line by line.
type Engine struct{}

// NewEngine creates a new alignment engine
func NewEngine() *Engine {
	return &Engine{}
}

// Map returns, for every line of from, the 1-based line of to that sits at
// the same place in the alignment. Equal runs map one to one, replaced runs
// map onto the replacement (clamped to its length) and deleted runs map to
// the line that follows the deletion in to. An empty to maps everything to 0.
func (e *Engine) Map(from, to []string) []int {
	mapping := make([]int, len(from))
	if len(to) == 0 {
		return mapping
	}

	opcodes, err := generateOpCodes(from, to)
	if err != nil {
		// Fall back to a positional mapping when the matcher fails
		for i := range from {
			mapping[i] = clamp(i+1, 1, len(to))
		}
		return mapping
	}

	for _, opcode := range opcodes {
		i1, i2, j1, j2 := opcode.I1, opcode.I2, opcode.J1, opcode.J2

		switch opcode.Tag {
		case 'e': // equal
			for i := i1; i < i2; i++ {
				mapping[i] = j1 + (i - i1) + 1
			}
		case 'r': // replace
			for i := i1; i < i2; i++ {
				mapping[i] = j1 + min(i-i1, j2-j1-1) + 1
			}
		case 'd': // delete
			for i := i1; i < i2; i++ {
				mapping[i] = clamp(j1+1, 1, len(to))
			}
		}
	}
	return mapping
}

// MapLine returns the line of to aligned with the 1-based line of from.
func (e *Engine) MapLine(from, to []string, line int) int {
	if line < 1 || line > len(from) {
		return clamp(line, 1, len(to))
	}
	return e.Map(from, to)[line-1]
}

func generateOpCodes(lines1, lines2 []string) (opcodes []difflib.OpCode, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("line alignment failed: %v", r)
		}
	}()

	matcher := difflib.NewMatcher(lines1, lines2)
	return matcher.GetOpCodes(), nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
