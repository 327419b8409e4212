package analysis

import (
	"sort"

	"github.com/wharflab/sqfls/internal/document"
	"github.com/wharflab/sqfls/internal/tlvm"
)

// computeNavHints produces the flat, source-position-ordered breadcrumb
// list used to resolve a cursor position to an AST node. Nodes are
// visited in pre-order, which puts an infix operator node ahead of its
// left operand, so the list is sorted by line and column afterwards.
func computeNavHints(root *tlvm.Node) []document.NavHint {
	if root == nil {
		return nil
	}
	var hints []document.NavHint
	root.Walk(func(n *tlvm.Node) {
		hints = append(hints, document.NavHint{
			Node:   n,
			Offset: n.Token.Offset,
			Line:   n.Token.Line,
			Column: n.Token.Column,
		})
	})
	sort.SliceStable(hints, func(i, j int) bool {
		if hints[i].Line != hints[j].Line {
			return hints[i].Line < hints[j].Line
		}
		return hints[i].Column < hints[j].Column
	})
	return hints
}

// Navigate finds the closest nav hint to (line, column): among the hints
// on the requested line, the one with the greatest column not exceeding
// the requested column. It reports false when the requested line has no
// hint at or before that column; other lines are not searched.
func Navigate(hints []document.NavHint, line, column int) (document.NavHint, bool) {
	if len(hints) == 0 {
		return document.NavHint{}, false
	}

	i := 0
	for i < len(hints) {
		if hints[i].Line == line {
			break
		}
		if hints[i].Line > line {
			return document.NavHint{}, false
		}
		i++
	}
	if i == len(hints) {
		return document.NavHint{}, false
	}

	j := i
	for j < len(hints) && hints[j].Line == line {
		if hints[j].Column == column {
			return hints[j], true
		}
		if hints[j].Column > column {
			break
		}
		j++
	}
	if j == i {
		return document.NavHint{}, false
	}
	return hints[j-1], true
}
