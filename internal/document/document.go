// Package document implements a keyed document arena: get-or-create by
// canonical path, and a locked accessor so analysis and editor-request
// handlers never race on the same document's AST, folding ranges,
// navigation hints, and declaration tables.
package document

import (
	"sync"

	"github.com/wharflab/sqfls/internal/protocol"
	"github.com/wharflab/sqfls/internal/tlvm"
)

// Kind distinguishes the primary target language from the secondary
// (transpile-source) language.
type Kind int

const (
	KindPrimary Kind = iota
	KindSecondary
)

// NavHint is one entry of a document's flat, position-ordered AST
// navigation breadcrumb list.
type NavHint struct {
	Node   *tlvm.Node
	Offset int
	Line   int
	Column int
}

// Document holds one open or discovered file's analysis state. All
// mutation must happen under the document's own lock (Document.Lock or
// Store.Locked) so concurrent handlers never see a half-updated
// AST/diagnostics pair.
type Document struct {
	mu sync.Mutex

	CanonicalPath string
	Kind          Kind
	Text          string
	Version       int

	AST     *tlvm.Node
	Parsed  bool // false once a parse error leaves AST absent
	Folding []protocol.FoldingRange
	Hints   []NavHint

	Diagnostics []protocol.Diagnostic

	Private []*Declaration
	Global  []*Declaration
}

// Parameter describes one expected argument of a callable declaration.
type Parameter struct {
	Types    []string
	Optional bool
}

// Declaration is one variable binding recorded by the variable-scope
// walker. Types and Params stay empty until a type-inference pass exists
// to fill them; the fields are part of the declaration shape shared with
// the workspace global table.
type Declaration struct {
	Name   string
	Level  int
	Line   int
	Column int
	Usages []protocol.Range

	// Types collects the value types observed for this variable.
	Types []string
	// Params carries the expected arguments when one observed type is
	// code.
	Params []Parameter
	// Owner is the canonical path of the owning file; empty for
	// function-private declarations.
	Owner string
}

// Lock exposes the document under its own mutex for the duration of fn.
func (d *Document) Lock(fn func(*Document)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(d)
}

// Store is the canonical-path-keyed document arena.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewStore builds an empty document store.
func NewStore() *Store {
	return &Store{docs: make(map[string]*Document)}
}

// GetOrCreate returns the existing document at canonicalPath, or inserts
// and returns a fresh one of the given kind.
func (s *Store) GetOrCreate(canonicalPath string, kind Kind) *Document {
	s.mu.RLock()
	doc, ok := s.docs[canonicalPath]
	s.mu.RUnlock()
	if ok {
		return doc
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.docs[canonicalPath]; ok {
		return doc
	}
	doc = &Document{CanonicalPath: canonicalPath, Kind: kind}
	s.docs[canonicalPath] = doc
	return doc
}

// Get returns the document at canonicalPath, if it exists.
func (s *Store) Get(canonicalPath string) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[canonicalPath]
	return doc, ok
}

// Locked looks up or creates the document at canonicalPath and runs fn
// under its per-document lock.
func (s *Store) Locked(canonicalPath string, kind Kind, fn func(*Document)) {
	doc := s.GetOrCreate(canonicalPath, kind)
	doc.Lock(fn)
}

// Delete removes a document from the store, e.g. on didClose.
func (s *Store) Delete(canonicalPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, canonicalPath)
}

// All returns a snapshot slice of every document currently in the store.
func (s *Store) All() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Document, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d)
	}
	return out
}
