package analysis

import (
	"github.com/wharflab/sqfls/internal/protocol"
	"github.com/wharflab/sqfls/internal/tlvm"
)

// computeFoldings walks root and emits one folding range per ARRAY/CODE
// node: start at the node's own token, end at its deepest-right
// descendant's token line.
func computeFoldings(root *tlvm.Node) []protocol.FoldingRange {
	if root == nil {
		return nil
	}
	var out []protocol.FoldingRange
	root.Walk(func(n *tlvm.Node) {
		if n.Kind != tlvm.NodeArray && n.Kind != tlvm.NodeCode {
			return
		}
		last := n.LastDescendant()
		startChar := n.Token.Offset
		endChar := n.Token.Offset + len(n.Token.Content)
		out = append(out, protocol.FoldingRange{
			StartLine:      n.Token.Line - 1,
			StartCharacter: &startChar,
			EndLine:        last.Token.Line - 1,
			EndCharacter:   &endChar,
		})
	})
	return out
}
