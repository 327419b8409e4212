package analysis

import (
	"context"

	"github.com/wharflab/sqfls/internal/document"
	"github.com/wharflab/sqfls/internal/protocol"
	"github.com/wharflab/sqfls/internal/tlvm"
)

// Publisher sends a document's current diagnostics to the client.
type Publisher interface {
	PublishDiagnostics(ctx context.Context, uri string, diagnostics []protocol.Diagnostic)
}

// Pipeline runs the analysis pipeline over one document at a time, under
// that document's lock.
type Pipeline struct {
	Adapter   tlvm.Adapter
	Globals   *document.GlobalTable
	Publisher Publisher
	ToURI     func(canonicalPath string) string
}

// Run executes the full pipeline for doc: clear diagnostics, preprocess,
// parse, recompute foldings/hints/variable-analysis, and publish if the
// diagnostic set changed.
func (p *Pipeline) Run(ctx context.Context, doc *document.Document) {
	doc.Lock(func(d *document.Document) {
		p.runLocked(ctx, d)
	})
}

// Analyze satisfies internal/workspace's Analyzer interface.
func (p *Pipeline) Analyze(ctx context.Context, doc *document.Document) {
	p.Run(ctx, doc)
}

func (p *Pipeline) runLocked(ctx context.Context, d *document.Document) {
	hadDiagnostics := len(d.Diagnostics) > 0
	d.Diagnostics = nil
	d.Private = nil
	d.Global = nil

	preprocessed, diag := p.Adapter.Preprocess(ctx, d.Text, d.CanonicalPath)
	if diag != nil {
		d.Diagnostics = append(d.Diagnostics, fatalDiagnostic("Failed to preprocess (or read) file."))
		d.AST = nil
		d.Parsed = false
		p.publishIfChanged(ctx, d, hadDiagnostics)
		return
	}

	root, ok := p.Adapter.Parse(ctx, preprocessed, d.CanonicalPath)
	if !ok {
		// Parse-level diagnostics were already emitted through the
		// runtime logger; this pipeline only records that no AST is
		// available.
		d.AST = nil
		d.Parsed = false
		p.publishIfChanged(ctx, d, hadDiagnostics)
		return
	}
	d.AST = root
	d.Parsed = true

	d.Folding = computeFoldings(root)
	d.Hints = computeNavHints(root)

	w := &walker{doc: d, globals: p.Globals}
	w.walk(root, 0, &known{}, intentNA)
	p.Globals.Replace(d.CanonicalPath, d.Global)

	p.publishIfChanged(ctx, d, hadDiagnostics)
}

func (p *Pipeline) publishIfChanged(ctx context.Context, d *document.Document, hadDiagnostics bool) {
	if !hadDiagnostics && len(d.Diagnostics) == 0 {
		return
	}
	p.Publisher.PublishDiagnostics(ctx, p.ToURI(d.CanonicalPath), d.Diagnostics)
}
