// Package transpile implements transpile-on-change for secondary-kind
// (transpile-source) documents: preprocess, parse via the secondary
// parser, serialize back to primary syntax, and write a sibling
// primary-extension file.
package transpile

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/wharflab/sqfls/internal/tlvm"
)

// Logger receives the client-facing log message for each failed stage.
type Logger interface {
	Error(message string)
	Info(message string)
}

// Transpiler runs the preprocess -> secondary-parse -> serialize -> write
// pipeline for one secondary-kind document change.
type Transpiler struct {
	Adapter tlvm.Adapter
	Log     Logger
}

// Run performs the pipeline for the file at originPath whose current text
// is text. Each stage's failure is logged and stops the pipeline before
// the next stage runs.
func (t *Transpiler) Run(ctx context.Context, originPath, text string) {
	t.Log.Info(fmt.Sprintf("Compiling file '%s'.", originPath))

	preprocessed, diag := t.Adapter.Preprocess(ctx, text, originPath)
	if diag != nil {
		t.Log.Error(fmt.Sprintf("Failed to preprocess '%s': %s", originPath, diag.Message))
		return
	}

	code, ok := t.Adapter.ParseSecondary(ctx, preprocessed, originPath)
	if !ok {
		t.Log.Error(fmt.Sprintf("Failed to parse '%s'.", originPath))
		return
	}

	serialized, err := t.Adapter.Serialize(ctx, code)
	if err != nil {
		t.Log.Error(fmt.Sprintf("Failed to serialize '%s': %v", originPath, err))
		return
	}

	trimmed := trimOuterBraces(serialized)

	sibling := siblingPrimaryPath(originPath)
	if err := os.WriteFile(sibling, []byte(trimmed), 0o644); err != nil {
		t.Log.Error(fmt.Sprintf("Failed to write '%s': %v", sibling, err))
		return
	}
}

// trimOuterBraces strips a single pair of enclosing braces and
// surrounding whitespace: the secondary parser wraps its program in an
// implicit top-level code block.
func trimOuterBraces(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// siblingPrimaryPath swaps a secondary-kind path's extension for the
// primary extension, e.g. foo.sqc -> foo.sqf.
func siblingPrimaryPath(originPath string) string {
	const secondaryExt = ".sqc"
	const primaryExt = ".sqf"
	if strings.HasSuffix(originPath, secondaryExt) {
		return strings.TrimSuffix(originPath, secondaryExt) + primaryExt
	}
	return originPath + primaryExt
}
