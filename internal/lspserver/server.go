// Package lspserver wires the transport, rpc, protocol, document,
// workspace, analysis and transpile packages together behind the editor
// protocol's method handlers, running over this project's own
// from-scratch transport and rpc.Peer.
package lspserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/wharflab/sqfls/internal/analysis"
	"github.com/wharflab/sqfls/internal/config"
	"github.com/wharflab/sqfls/internal/document"
	"github.com/wharflab/sqfls/internal/protocol"
	"github.com/wharflab/sqfls/internal/rpc"
	"github.com/wharflab/sqfls/internal/tlvm"
	"github.com/wharflab/sqfls/internal/transport"
	"github.com/wharflab/sqfls/internal/transpile"
	"github.com/wharflab/sqfls/internal/uri"
	"github.com/wharflab/sqfls/internal/version"
	"github.com/wharflab/sqfls/internal/watcher"
	"github.com/wharflab/sqfls/internal/workspace"
)

const serverName = "sqfls"

const primaryLanguageID = "sqf"

// vmLogSource tags diagnostics that originate from the VM's runtime
// logger rather than this server's own analyzer.
const vmLogSource = "SQF-VM"

// Server is the sqfls language server.
type Server struct {
	peer *rpc.Peer
	log  *log.Logger

	store   *document.Store
	globals *document.GlobalTable

	adapter    tlvm.Adapter
	pipeline   *analysis.Pipeline
	boot       *workspace.Bootstrapper
	transpiler *transpile.Transpiler

	secondaryCompilation atomic.Bool

	die atomic.Bool

	workspaceFolders []protocol.WorkspaceFolder
}

// New builds a Server wired to the given TL VM adapter implementation.
func New(adapter tlvm.Adapter, logger *log.Logger) *Server {
	store := document.NewStore()
	globals := document.NewGlobalTable()

	s := &Server{
		log:     logger,
		store:   store,
		globals: globals,
		adapter: adapter,
	}

	s.pipeline = &analysis.Pipeline{
		Adapter:   adapter,
		Globals:   globals,
		Publisher: s,
		ToURI:     uri.ToURI,
	}

	s.boot = &workspace.Bootstrapper{
		Store:   store,
		Mounter: adapter,
		Log:     s,
		Analyze: s.pipeline,
	}

	s.transpiler = &transpile.Transpiler{Adapter: adapter, Log: s}

	return s
}

// ApplyConfig seeds the bootstrapper's startup defaults (secondary-kind
// compilation and additional workspace mounts) from discovered
// configuration, before the workspace scan runs. This counts as the
// "first invocation" of workspace/didChangeConfiguration's
// first-apply-only rule: a client configuration notification arriving
// afterward still updates the secondary-compilation flag but no longer
// registers mounts.
func (s *Server) ApplyConfig(ctx context.Context, cfg *config.Config) {
	s.secondaryCompilation.Store(cfg.SecondaryCompilation)
	s.boot.HandleConfigurationChange(ctx, cfg.SecondaryCompilation, cfg.AdditionalMounts)
}

// RunStdio starts the server on stdin/stdout using Content-Length
// framing, and blocks until ctx is cancelled or shutdown/exit is
// received.
func (s *Server) RunStdio(ctx context.Context) error {
	tr := transport.New(os.Stdin, os.Stdout, transport.HeaderErrorSkip)
	s.peer = rpc.New(tr, s.log)
	s.registerHandlers()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		for range tr.Errs() {
		}
	}()
	go s.watchDie(ctx, cancel)
	go s.routeVMLogs(ctx)

	go tr.Run(ctx)
	s.peer.Pump(ctx)
	return nil
}

func (s *Server) watchDie(ctx context.Context, cancel context.CancelFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Millisecond):
		}
		if s.die.Load() {
			cancel()
			return
		}
	}
}

func (s *Server) registerHandlers() {
	s.peer.Register("initialize", s.handleInitialize)
	s.peer.Register("initialized", s.handleInitialized)
	s.peer.Register("workspace/didChangeConfiguration", s.handleDidChangeConfiguration)
	s.peer.Register("textDocument/didChange", s.handleDidChange)
	s.peer.Register("textDocument/foldingRange", s.handleFoldingRange)
	s.peer.Register("textDocument/completion", s.handleCompletion)
	s.peer.Register("shutdown", s.handleShutdown)
	s.peer.Register("exit", s.handleExit)
}

// Log implements workspace.Logger and analysis logging by routing to
// window/logMessage.
func (s *Server) Log(message string)   { s.logMessage(protocol.MessageLog, message) }
func (s *Server) Error(message string) { s.logMessage(protocol.MessageError, message) }
func (s *Server) Info(message string)  { s.logMessage(protocol.MessageInfo, message) }

func (s *Server) logMessage(kind protocol.MessageType, message string) {
	if s.peer == nil {
		s.log.Printf("%s", message)
		return
	}
	_ = s.peer.Notify(context.Background(), "window/logMessage", protocol.LogMessageParams{
		Type:    kind,
		Message: message,
	})
}

// PublishDiagnostics implements analysis.Publisher.
func (s *Server) PublishDiagnostics(ctx context.Context, docURI string, diagnostics []protocol.Diagnostic) {
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	if s.peer == nil {
		return
	}
	_ = s.peer.Notify(ctx, "textDocument/publishDiagnostics", protocol.PublishDiagnosticsParams{
		URI:         docURI,
		Diagnostics: diagnostics,
	})
}

// routeVMLogs drains the VM runtime logger, forwarding every entry to
// window/logMessage and, when the entry carries a source location,
// attaching a diagnostic to the owning document and republishing its set.
func (s *Server) routeVMLogs(ctx context.Context) {
	for {
		select {
		case entry, ok := <-s.adapter.Logs():
			if !ok {
				return
			}
			s.routeVMLog(ctx, entry)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) routeVMLog(ctx context.Context, entry tlvm.LogEntry) {
	s.logMessage(logMessageType(entry.Severity), fmt.Sprintf("%s %s", entry.Severity, entry.Message))

	if !entry.HasLocation {
		return
	}
	canonical := uri.Sanitize(entry.Path)
	diag := protocol.Diagnostic{
		Code: entry.Code,
		Range: protocol.Range{
			Start: protocol.Position{Line: entry.Line - 1, Character: entry.Column},
			End:   protocol.Position{Line: entry.Line - 1, Character: entry.Column},
		},
		Message:  entry.Message,
		Severity: diagnosticSeverity(entry.Severity),
		Source:   vmLogSource,
	}

	var current []protocol.Diagnostic
	s.store.Locked(canonical, document.KindPrimary, func(d *document.Document) {
		d.Diagnostics = append(d.Diagnostics, diag)
		current = append([]protocol.Diagnostic(nil), d.Diagnostics...)
	})
	s.PublishDiagnostics(ctx, uri.ToURI(canonical), current)
}

func logMessageType(sev tlvm.LogSeverity) protocol.MessageType {
	switch sev {
	case tlvm.LogFatal, tlvm.LogError:
		return protocol.MessageError
	case tlvm.LogWarning:
		return protocol.MessageWarning
	case tlvm.LogInfo:
		return protocol.MessageInfo
	default:
		return protocol.MessageLog
	}
}

func diagnosticSeverity(sev tlvm.LogSeverity) protocol.DiagnosticSeverity {
	switch sev {
	case tlvm.LogFatal, tlvm.LogError:
		return protocol.SeverityError
	case tlvm.LogWarning:
		return protocol.SeverityWarning
	case tlvm.LogInfo:
		return protocol.SeverityInformation
	default:
		return protocol.SeverityHint
	}
}

func (s *Server) handleInitialize(_ context.Context, raw json.RawMessage) (any, error) {
	var params protocol.InitializeParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, err
		}
	}
	s.workspaceFolders = params.WorkspaceFolders

	ver := version.RawVersion()
	return protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.SyncFull,
				WillSave:  false,
				Save:      &protocol.SaveOptions{IncludeText: true},
			},
			FoldingRangeProvider: &protocol.FoldingRangeRegistrationOptions{
				DocumentSelector: []protocol.DocumentFilter{{Language: primaryLanguageID}},
			},
			Workspace: protocol.WorkspaceServerCapabilities{
				WorkspaceFolders: protocol.WorkspaceFoldersServerCapabilities{
					Supported:           true,
					ChangeNotifications: true,
				},
			},
		},
		ServerInfo: &protocol.ServerInfo{Name: serverName, Version: ver},
	}, nil
}

func (s *Server) handleInitialized(ctx context.Context, _ json.RawMessage) (any, error) {
	s.boot.Run(ctx, s.workspaceFolders)
	s.startWatcher(ctx)
	return nil, nil
}

// startWatcher watches every workspace folder for primary-extension,
// secondary-extension and marker-file changes so the bootstrapper can
// react to on-disk edits made outside the client, re-running discovery
// without a client round-trip. Failing to start the watcher is not
// fatal: the server still works through the client's own
// didChange/didSave notifications.
func (s *Server) startWatcher(ctx context.Context) {
	w, err := watcher.New(s.log)
	if err != nil {
		s.Error(fmt.Sprintf("Failed to start file watcher: %v", err))
		return
	}
	for _, folder := range s.workspaceFolders {
		root, err := uri.FromURI(folder.URI)
		if err != nil {
			continue
		}
		if err := w.AddRoot(root); err != nil {
			s.Error(fmt.Sprintf("Failed to watch %s: %v", root, err))
		}
	}
	go w.Run()
	go s.watchFileEvents(ctx, w)
}

func (s *Server) watchFileEvents(ctx context.Context, w *watcher.Watcher) {
	defer w.Close()
	for {
		select {
		case ev, ok := <-w.Events():
			if !ok {
				return
			}
			s.handleFileEvent(ctx, ev)
		case <-ctx.Done():
			return
		}
	}
}

// handleFileEvent reacts to one on-disk change. A marker-file change can
// shift mounts, so it re-runs the full two-phase bootstrap; a primary- or
// secondary-extension removal drops the document from the store; any
// other create/write re-runs analysis for that one document, the same
// way Phase B does for a freshly discovered file.
func (s *Server) handleFileEvent(ctx context.Context, ev watcher.Event) {
	if filepath.Base(ev.Path) == workspace.MarkerFileName {
		s.boot.Run(ctx, s.workspaceFolders)
		return
	}

	canonical := uri.Sanitize(ev.Path)
	if ev.Kind == watcher.EventRemove {
		s.store.Delete(canonical)
		return
	}

	kind := document.KindPrimary
	if filepath.Ext(ev.Path) == workspace.SecondaryExtension {
		kind = document.KindSecondary
	}
	doc := s.store.GetOrCreate(canonical, kind)
	s.pipeline.Analyze(ctx, doc)
}

func (s *Server) handleDidChangeConfiguration(ctx context.Context, raw json.RawMessage) (any, error) {
	var params protocol.DidChangeConfigurationParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, err
		}
	}
	if params.Settings.IsEmpty() {
		// A notification without a settings payload applies nothing and
		// does not consume the first-apply mount window.
		return nil, nil
	}
	secondary, mounts := readSettings(params.Settings)
	s.secondaryCompilation.Store(secondary)
	s.boot.HandleConfigurationChange(ctx, secondary, mounts)
	return nil, nil
}

// handleDidChange updates the document's text, runs the analysis
// pipeline, and for secondary-kind documents additionally runs
// transpile-on-change, when enabled. Analysis still runs on a
// secondary-kind document only while secondary compilation is enabled;
// otherwise the handler returns early without analyzing or transpiling.
func (s *Server) handleDidChange(ctx context.Context, raw json.RawMessage) (any, error) {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	path, err := uri.FromURI(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	var text string
	for _, change := range params.ContentChanges {
		text = change.Text
	}

	kind := document.KindPrimary
	isSecondary := filepath.Ext(path) == workspace.SecondaryExtension
	if isSecondary {
		kind = document.KindSecondary
	}

	doc := s.store.GetOrCreate(path, kind)
	doc.Lock(func(d *document.Document) {
		d.Text = text
		d.Version = params.TextDocument.Version
	})

	if isSecondary {
		if !s.secondaryCompilation.Load() {
			return nil, nil
		}
		s.transpiler.Run(ctx, path, text)
	}

	s.pipeline.Analyze(ctx, doc)
	return nil, nil
}

// readSettings defensively reads the nested
// sqfls.ls.{sqcSupport,additionalMappings} settings block. A missing or
// wrong-typed key is not a configuration error; it is treated as "use
// the default."
func readSettings(settings protocol.Experimental) (secondary bool, mounts []config.Mount) {
	if settings.IsEmpty() {
		return false, nil
	}
	var nested struct {
		Sqfls struct {
			LS struct {
				SqcSupport       bool              `json:"sqcSupport"`
				AdditionalMounts map[string]string `json:"additionalMappings"`
			} `json:"ls"`
		} `json:"sqfls"`
	}
	raw, err := settings.MarshalJSON()
	if err != nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, &nested); err != nil {
		return false, nil
	}
	for virtual, physical := range nested.Sqfls.LS.AdditionalMounts {
		mounts = append(mounts, config.Mount{Physical: physical, Virtual: virtual})
	}
	return nested.Sqfls.LS.SqcSupport, mounts
}

func (s *Server) handleFoldingRange(_ context.Context, raw json.RawMessage) (any, error) {
	var params protocol.FoldingRangeParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	path, err := uri.FromURI(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	doc, ok := s.store.Get(path)
	if !ok {
		return []protocol.FoldingRange{}, nil
	}
	var result []protocol.FoldingRange
	doc.Lock(func(d *document.Document) {
		result = append([]protocol.FoldingRange(nil), d.Folding...)
	})
	return result, nil
}

// handleCompletion returns an empty completion list. Cursor resolution
// via the nearest nav hint (analysis.Navigate) is fully implemented and
// tested; no completion catalog exists to populate items from (see the
// Open Question decision in DESIGN.md).
func (s *Server) handleCompletion(_ context.Context, raw json.RawMessage) (any, error) {
	var params protocol.CompletionParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, err
	}
	path, err := uri.FromURI(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	doc, ok := s.store.Get(path)
	if !ok {
		return protocol.CompletionList{Items: []protocol.CompletionItem{}}, nil
	}
	doc.Lock(func(d *document.Document) {
		_, _ = analysis.Navigate(d.Hints, params.Position.Line+1, params.Position.Character)
	})
	return protocol.CompletionList{Items: []protocol.CompletionItem{}}, nil
}

func (s *Server) handleShutdown(_ context.Context, _ json.RawMessage) (any, error) {
	s.die.Store(true)
	return nil, nil
}

func (s *Server) handleExit(_ context.Context, _ json.RawMessage) (any, error) {
	s.die.Store(true)
	return nil, nil
}
