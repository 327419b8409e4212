package lspserver

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/gkampitakis/go-snaps/match"
	"github.com/gkampitakis/go-snaps/snaps"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/sqfls/internal/config"
	"github.com/wharflab/sqfls/internal/document"
	"github.com/wharflab/sqfls/internal/protocol"
	"github.com/wharflab/sqfls/internal/tlvm"
	"github.com/wharflab/sqfls/internal/uri"
	"github.com/wharflab/sqfls/internal/watcher"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(tlvm.NewFakeAdapter(), log.New(io.Discard, "", 0))
}

// TestHandleInitializeCapabilities snapshots the full capability set this
// server advertises, with the dynamic version field masked out.
func TestHandleInitializeCapabilities(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	result, err := s.handleInitialize(context.Background(), json.RawMessage(`{"workspaceFolders":[]}`))
	require.NoError(t, err)

	snaps.WithConfig(
		snaps.JSON(snaps.JSONConfig{SortKeys: true, Indent: " "}),
	).MatchStandaloneJSON(t, result, match.Any("serverInfo.version"))
}

func TestHandleInitializeRecordsWorkspaceFolders(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	folders := []protocol.WorkspaceFolder{{URI: "file:///a", Name: "a"}}
	raw, err := json.Marshal(protocol.InitializeParams{WorkspaceFolders: folders})
	require.NoError(t, err)

	_, err = s.handleInitialize(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, folders, s.workspaceFolders)
}

func TestHandleShutdownSetsDieFlag(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	assert.False(t, s.die.Load())

	_, err := s.handleShutdown(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, s.die.Load())
}

func TestReadSettingsParsesNestedSqflsBlock(t *testing.T) {
	t.Parallel()
	var settings protocol.Experimental
	raw := []byte(`{"sqfls":{"ls":{"sqcSupport":true,"additionalMappings":{"/v":"/p"}}}}`)
	require.NoError(t, json.Unmarshal(raw, &settings))

	secondary, mounts := readSettings(settings)
	assert.True(t, secondary)
	require.Len(t, mounts, 1)
	assert.Equal(t, "/p", mounts[0].Physical)
	assert.Equal(t, "/v", mounts[0].Virtual)
}

func TestReadSettingsDefaultsOnEmptySettings(t *testing.T) {
	t.Parallel()
	var settings protocol.Experimental
	secondary, mounts := readSettings(settings)
	assert.False(t, secondary)
	assert.Nil(t, mounts)
}

func TestApplyConfigSeedsSecondaryCompilationAndMounts(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	cfg := &config.Config{
		SecondaryCompilation: true,
		AdditionalMounts:     []config.Mount{{Physical: "/p", Virtual: "/v"}},
	}
	s.ApplyConfig(context.Background(), cfg)

	assert.True(t, s.secondaryCompilation.Load())
	assert.True(t, s.boot.SecondaryCompilation)

	adapter := s.adapter.(*tlvm.FakeAdapter)
	require.Len(t, adapter.Mounts, 1)
	assert.Equal(t, "/p", adapter.Mounts[0].Physical)
	assert.Equal(t, "/v", adapter.Mounts[0].Virtual)
}

func TestRouteVMLogAttachesLocatedEntryAsDocumentDiagnostic(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	s.routeVMLog(context.Background(), tlvm.LogEntry{
		Severity:    tlvm.LogError,
		Message:     "expected ; got }",
		Code:        "30001",
		HasLocation: true,
		Path:        "/mission/init.sqf",
		Line:        3,
		Column:      7,
	})

	doc, ok := s.store.Get("/mission/init.sqf")
	require.True(t, ok)
	var diags []protocol.Diagnostic
	doc.Lock(func(d *document.Document) {
		diags = append([]protocol.Diagnostic(nil), d.Diagnostics...)
	})
	require.Len(t, diags, 1)
	assert.Equal(t, "30001", diags[0].Code)
	assert.Equal(t, "SQF-VM", diags[0].Source)
	assert.Equal(t, protocol.SeverityError, diags[0].Severity)
	assert.Equal(t, 2, diags[0].Range.Start.Line)
	assert.Equal(t, 7, diags[0].Range.Start.Character)
}

func TestRouteVMLogWithoutLocationTouchesNoDocument(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)

	s.routeVMLog(context.Background(), tlvm.LogEntry{
		Severity: tlvm.LogVerbose,
		Message:  "loaded operators",
	})

	assert.Empty(t, s.store.All())
}

func TestSeverityMappingFollowsRuntimeLoggerLevels(t *testing.T) {
	t.Parallel()
	assert.Equal(t, protocol.SeverityError, diagnosticSeverity(tlvm.LogFatal))
	assert.Equal(t, protocol.SeverityError, diagnosticSeverity(tlvm.LogError))
	assert.Equal(t, protocol.SeverityWarning, diagnosticSeverity(tlvm.LogWarning))
	assert.Equal(t, protocol.SeverityInformation, diagnosticSeverity(tlvm.LogInfo))
	assert.Equal(t, protocol.SeverityHint, diagnosticSeverity(tlvm.LogVerbose))
	assert.Equal(t, protocol.SeverityHint, diagnosticSeverity(tlvm.LogTrace))

	assert.Equal(t, protocol.MessageError, logMessageType(tlvm.LogError))
	assert.Equal(t, protocol.MessageWarning, logMessageType(tlvm.LogWarning))
	assert.Equal(t, protocol.MessageInfo, logMessageType(tlvm.LogInfo))
	assert.Equal(t, protocol.MessageLog, logMessageType(tlvm.LogTrace))
}

func TestHandleFileEventMarkerChangeRerunsBootstrap(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "init.sqf"), []byte("x=1;"), 0o644))

	s := newTestServer(t)
	s.workspaceFolders = []protocol.WorkspaceFolder{{URI: uri.ToURI(dir)}}
	s.handleFileEvent(context.Background(), watcher.Event{
		Path: filepath.Join(dir, "$PBOPREFIX$"),
		Kind: watcher.EventWrite,
	})

	_, ok := s.store.Get(uri.Sanitize(filepath.Join(dir, "init.sqf")))
	assert.True(t, ok, "rerunning the bootstrap should discover init.sqf")
}

func TestHandleFileEventRemoveDropsDocument(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	path := "/a/fn.sqf"
	s.store.GetOrCreate(path, document.KindPrimary)

	s.handleFileEvent(context.Background(), watcher.Event{Path: path, Kind: watcher.EventRemove})

	_, ok := s.store.Get(path)
	assert.False(t, ok)
}

func TestHandleFileEventWriteAnalyzesDocument(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	path := "/a/fn.sqf"

	s.handleFileEvent(context.Background(), watcher.Event{Path: path, Kind: watcher.EventWrite})

	_, ok := s.store.Get(path)
	assert.True(t, ok, "a create/write event should register the document for analysis")
}
