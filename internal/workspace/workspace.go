// Package workspace implements the two-phase workspace bootstrap: walk
// every workspace folder, register prefix-marker mounts, then discover
// and enqueue analysis for every primary-extension file, logging progress
// as it goes.
package workspace

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/wharflab/sqfls/internal/config"
	"github.com/wharflab/sqfls/internal/document"
	"github.com/wharflab/sqfls/internal/protocol"
	"github.com/wharflab/sqfls/internal/tlvm"
	"github.com/wharflab/sqfls/internal/uri"
)

// MarkerFileName is the conventional prefix-marker file name the
// bootstrapper looks for in every directory.
const MarkerFileName = "$PBOPREFIX$"

// PrimaryExtension is the target language's file extension.
const PrimaryExtension = ".sqf"

// SecondaryExtension is the transpile-source language's file extension.
const SecondaryExtension = ".sqc"

// Logger receives progress and error messages destined for
// window/logMessage.
type Logger interface {
	Log(message string)
	Error(message string)
}

// Analyzer enqueues or runs analysis for a freshly discovered document.
// The real wiring in internal/lspserver passes the analysis pipeline's
// entry point here.
type Analyzer interface {
	Analyze(ctx context.Context, doc *document.Document)
}

// Bootstrapper performs the two-phase workspace scan and owns the
// first-configuration-change-only guard for additional mounts.
type Bootstrapper struct {
	Store   *document.Store
	Mounter tlvm.Mounter
	Log     Logger
	Analyze Analyzer

	mu                   sync.Mutex
	readConfigOnce       bool
	SecondaryCompilation bool

	// IgnoreGlobs are doublestar patterns (relative to each workspace
	// root) excluded from Phase B discovery, e.g. build output
	// directories. internal/config has no setting for it; it is set
	// directly on the Bootstrapper.
	IgnoreGlobs []string
}

// ignored reports whether rel (a root-relative, forward-slashed path)
// matches any configured ignore glob.
func (b *Bootstrapper) ignored(rel string) bool {
	for _, pattern := range b.IgnoreGlobs {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Run performs the full bootstrap over every workspace folder: Phase A
// (marker discovery and mounting) then Phase B (file discovery and
// analysis), in that order.
func (b *Bootstrapper) Run(ctx context.Context, folders []protocol.WorkspaceFolder) {
	for _, folder := range folders {
		root, err := uri.FromURI(folder.URI)
		if err != nil {
			b.Log.Error(fmt.Sprintf("Cannot analyze workspace folder %s: %v", folder.URI, err))
			continue
		}
		if !pathExists(root) {
			b.Log.Error(fmt.Sprintf("Cannot analyze workspace folder %s as it is not existing.", root))
			continue
		}

		b.Log.Log(fmt.Sprintf("Mapping %s onto '/'", root))
		if err := b.Mounter.Mount(ctx, root, "/"); err != nil {
			b.Log.Error(fmt.Sprintf("Failed to mount %s: %v", root, err))
			continue
		}

		b.phaseA(ctx, root)
		b.phaseB(ctx, root)
	}
	b.Log.Log("sqfls is ready.")
}

// phaseA walks root recursively, mounting every marker file found — not
// just one per workspace root.
func (b *Bootstrapper) phaseA(ctx context.Context, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			b.Log.Error(fmt.Sprintf("Failed to read %s. Skipping.", path))
			return nil
		}
		if d.IsDir() || d.Name() != MarkerFileName {
			return nil
		}
		contents, readErr := readMarkerFile(path)
		dir := filepath.Dir(path)
		if readErr != nil {
			b.Log.Error(fmt.Sprintf("Failed to read %s. Skipping.", dir))
			return nil
		}
		virtual := uri.Sanitize(contents)
		if err := b.Mounter.Mount(ctx, dir, virtual); err != nil {
			b.Log.Error(fmt.Sprintf("Failed to mount %s onto %s: %v", dir, virtual, err))
		}
		return nil
	})
}

// phaseB enumerates every primary-extension file under root, creates a
// document for it, and triggers analysis, logging progress after each
// file.
func (b *Bootstrapper) phaseB(ctx context.Context, root string) {
	total := 0
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != PrimaryExtension {
			return nil
		}
		if rel, relErr := filepath.Rel(root, path); relErr == nil && b.ignored(filepath.ToSlash(rel)) {
			return nil
		}
		total++
		return nil
	})

	count := 0
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != PrimaryExtension {
			return nil
		}
		if rel, relErr := filepath.Rel(root, path); relErr == nil && b.ignored(filepath.ToSlash(rel)) {
			return nil
		}
		canonical := uri.Sanitize(path)
		doc := b.Store.GetOrCreate(canonical, document.KindPrimary)
		count++
		b.Log.Log(fmt.Sprintf("Analyzing %s ... (%d/%d)", canonical, count, total))
		b.Analyze.Analyze(ctx, doc)
		return nil
	})
}

// HandleConfigurationChange applies a workspace/didChangeConfiguration
// notification: SecondaryCompilation is re-read every time, but
// additional mounts are only read and registered on the first
// invocation. Later mount-list edits are ignored; this is a documented
// current limitation, not an oversight.
func (b *Bootstrapper) HandleConfigurationChange(ctx context.Context, secondaryEnabled bool, additionalMounts []config.Mount) {
	b.SecondaryCompilation = secondaryEnabled
	if secondaryEnabled {
		b.Log.Log("Secondary-language auto-compilation support enabled.")
	}

	b.mu.Lock()
	already := b.readConfigOnce
	b.readConfigOnce = true
	b.mu.Unlock()
	if already {
		return
	}

	for _, m := range additionalMounts {
		if err := b.Mounter.Mount(ctx, m.Physical, m.Virtual); err != nil {
			b.Log.Error(fmt.Sprintf("Failed to mount %s onto %s: %v", m.Physical, m.Virtual, err))
		}
	}
}

func pathExists(p string) bool {
	_, err := filepathStat(p)
	return err == nil
}
