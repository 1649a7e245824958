package linebreak

import (
	"fmt"

	"github.com/ByLCY/galley/box"
	"github.com/ByLCY/galley/layout"
)

// Breakpoint is a chosen break. Pos indexes the input list; the final
// break may equal the list length when the list was not closed.
type Breakpoint struct {
	Pos      int       `json:"pos"`
	Kind     box.Kind  `json:"kind"`
	Line     int       `json:"line"` // 1-based line ended by this break
	Fitness  Fitness   `json:"fitness"`
	Badness  int       `json:"badness"`
	Penalty  int       `json:"penalty"`
	Flagged  bool      `json:"flagged,omitempty"`
	Demerits float64   `json:"demerits"` // demerits of this line alone
	Start    int       `json:"start"`    // first list index of the line
	Set      GlueRatio `json:"set"`
}

// GlueRatio summarises how the line's glue was set.
type GlueRatio struct {
	Sign  layout.Sign `json:"sign"`
	Order box.Order   `json:"order"`
	Ratio float64     `json:"ratio"`
}

// Paragraph is a broken and set paragraph.
type Paragraph struct {
	Breaks []Breakpoint `json:"breaks"`
	Lines  []*box.HBox  `json:"-"`
	// VList interleaves the lines with interline glue and penalties.
	VList  []box.Node     `json:"-"`
	Box    *box.VBox      `json:"-"`
	Placed *layout.Placed `json:"placed"`

	Diagnostics   []layout.Diagnostic `json:"diagnostics,omitempty"`
	TotalDemerits float64             `json:"totalDemerits"`
	// Pass is 1 for the pretolerance pass, 2 for the tolerance pass and 3
	// for the emergency pass; 0 for the greedy breaker.
	Pass int `json:"pass"`
	// Considered holds the total demerits of every path still active at
	// the end of the paragraph in the successful pass.
	Considered []float64 `json:"considered,omitempty"`
}

// NodeError locates a malformed node in the list given to Break.
type NodeError struct {
	Index int
	Err   error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("linebreak: node %d: %v", e.Index, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }

func validate(list []box.Node) error {
	for i, n := range list {
		if n == nil {
			return &NodeError{Index: i, Err: fmt.Errorf("nil node")}
		}
		if err := box.Validate(n); err != nil {
			return &NodeError{Index: i, Err: err}
		}
	}
	return nil
}
