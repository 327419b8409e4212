// Package analysis implements the analysis pipeline and variable-scope
// walker: per-document preprocess/parse/fold/navigate/variable-scope
// passes, plus the shadowing/naming checks shared by declaration sites.
package analysis

import (
	"strings"

	"github.com/wharflab/sqfls/internal/document"
	"github.com/wharflab/sqfls/internal/protocol"
	"github.com/wharflab/sqfls/internal/tlvm"
)

// parentIntent is a tag the walker threads downward to tell a CODE/STRING
// node what its enclosing construct expects of it.
type parentIntent int

const (
	intentNA parentIntent = iota
	intentDeclareForeachXAndIndex
	intentDeclareX
	intentPrivate
)

// known is a stack of declarations keyed by lexical depth (level),
// searched linearly.
type known struct {
	decls []*document.Declaration
}

func (k *known) push(d *document.Declaration) { k.decls = append(k.decls, d) }

func (k *known) find(name string) (*document.Declaration, bool) {
	for _, d := range k.decls {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}

// dropLevel removes every declaration whose Level equals level, run on
// CODE exit.
func (k *known) dropLevel(level int) {
	kept := k.decls[:0]
	for _, d := range k.decls {
		if d.Level != level {
			kept = append(kept, d)
		}
	}
	k.decls = kept
}

// walker carries the per-document mutable state threaded through
// recursion: the document being analyzed (for appending diagnostics and
// private declarations) and the workspace's global table (for appending
// global declarations, guarded by its own mutex).
type walker struct {
	doc     *document.Document
	globals *document.GlobalTable
}

func newVariable(level int, tok tlvm.Token, name string) *document.Declaration {
	return &document.Declaration{Name: name, Level: level, Line: tok.Line, Column: tok.Column}
}

// ensureL0001L0003 performs the shadowing/naming checks shared by
// ASSIGNMENT/ASSIGNMENT_LOCAL and PRIVATE-intent STRING nodes, then
// records the new declaration in `known` and in the document's private
// or global declaration list.
func (w *walker) ensureL0001L0003(k *known, level int, tok tlvm.Token, rawName string, privateCheck bool) {
	name := strings.ToLower(rawName)

	if _, shadowed := k.find(name); shadowed {
		w.doc.Diagnostics = append(w.doc.Diagnostics, raiseL0001(tok, name))
	}

	if privateCheck && !strings.HasPrefix(name, "_") {
		w.doc.Diagnostics = append(w.doc.Diagnostics, raiseL0003(tok, name))
	}

	decl := newVariable(level, tok, name)
	k.push(decl)
	if strings.HasPrefix(name, "_") {
		w.doc.Private = append(w.doc.Private, decl)
	} else {
		decl.Owner = w.doc.CanonicalPath
		w.doc.Global = append(w.doc.Global, decl)
	}
}

// walk performs one recursive step of the variable-scope analysis over
// current.
func (w *walker) walk(current *tlvm.Node, level int, k *known, intent parentIntent) {
	if current == nil {
		return
	}

	switch current.Kind {

	case tlvm.NodeAssignment, tlvm.NodeAssignmentLocal:
		// Only a name `known` has never seen is a genuine declaration; an
		// assignment to an already-known name is a plain reassignment
		// (the binding it resolves to is reused, not shadowed) and never
		// raises L-0001. `private` is the construct that always declares
		// anew, duplicate or not.
		lhs := current.Children[0]
		if _, exists := k.find(strings.ToLower(lhs.Token.Content)); !exists {
			w.ensureL0001L0003(k, level, lhs.Token, lhs.Token.Content, false)
		}
		w.walk(lhs, level, k, intentNA)
		if len(current.Children) > 1 {
			w.walk(current.Children[1], level, k, intentNA)
		}

	case tlvm.NodeCode:
		// Construct-introduced variables live at the block body's depth so
		// the drop below removes them once the controlled block ends.
		switch intent {
		case intentDeclareForeachXAndIndex:
			k.push(newVariable(level+1, current.Token, "_foreachindex"))
			k.push(newVariable(level+1, current.Token, "_x"))
		case intentDeclareX:
			k.push(newVariable(level+1, current.Token, "_x"))
		}
		for _, c := range current.Children {
			w.walk(c, level+1, k, intentNA)
		}
		k.dropLevel(level + 1)

	case tlvm.NodeVariable:
		name := strings.ToLower(current.Token.Content)
		if decl, ok := k.find(name); ok {
			usage := protocol.Range{
				Start: protocol.Position{Line: current.Token.Line - 1, Character: current.Token.Column},
				End:   protocol.Position{Line: current.Token.Line - 1, Character: current.Token.Column},
			}
			decl.Usages = append(decl.Usages, usage)
		} else {
			w.doc.Diagnostics = append(w.doc.Diagnostics, raiseL0002(current.Token, name))
		}
		// Falls through to default recursion for VARIABLE nodes
		// regardless of whether the lookup succeeded.
		w.walkChildrenDefault(current, level, k, intent)

	case tlvm.NodeBinaryExpression:
		op := strings.ToLower(current.Operator)
		switch op {
		case "spawn":
			for _, c := range current.Children {
				fresh := &known{}
				fresh.push(newVariable(level, current.Token, "_this"))
				w.walk(c, level+1, fresh, intentNA)
			}
		case "foreach":
			for _, c := range current.Children {
				w.walk(c, level+1, k, intentDeclareForeachXAndIndex)
			}
		case "count", "select", "apply", "findif":
			for _, c := range current.Children {
				w.walk(c, level+1, k, intentDeclareX)
			}
		default:
			w.walkChildrenDefault(current, level, k, intent)
		}

	case tlvm.NodeUnaryExpression:
		op := strings.ToLower(current.Operator)
		switch {
		case op == "spawn":
			for _, c := range current.Children {
				fresh := &known{}
				fresh.push(newVariable(level+1, current.Token, "_this"))
				w.walk(c, level+1, fresh, intentNA)
			}
		case op == "private":
			for _, c := range current.Children {
				w.walk(c, level, k, intentPrivate)
			}
		case op == "for" && len(current.Children) > 1 && current.Children[1].Kind == tlvm.NodeString:
			lit := current.Children[1]
			name := strings.ToLower(lit.Token.Content)
			decl := newVariable(level, lit.Token, name)
			k.push(decl)
			if strings.HasPrefix(name, "_") {
				w.doc.Private = append(w.doc.Private, decl)
			} else {
				decl.Owner = w.doc.CanonicalPath
				w.doc.Global = append(w.doc.Global, decl)
			}
			w.walkChildrenDefault(current, level, k, intent)
		default:
			w.walkChildrenDefault(current, level, k, intent)
		}

	case tlvm.NodeString:
		if intent == intentPrivate {
			w.ensureL0001L0003(k, level, current.Token, current.Token.Content, true)
		}

	default:
		w.walkChildrenDefault(current, level, k, intent)
	}
}

func (w *walker) walkChildrenDefault(current *tlvm.Node, level int, k *known, intent parentIntent) {
	for _, c := range current.Children {
		w.walk(c, level, k, intent)
	}
}
