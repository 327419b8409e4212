package transpile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wharflab/sqfls/internal/tlvm"
)

type recordingLogger struct {
	errors []string
	infos  []string
}

func (l *recordingLogger) Error(message string) { l.errors = append(l.errors, message) }
func (l *recordingLogger) Info(message string)  { l.infos = append(l.infos, message) }

func TestRunWritesSiblingPrimaryFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	origin := filepath.Join(dir, "fn_test.sqc")

	adapter := tlvm.NewFakeAdapter()
	adapter.SecondaryFunc = func(text, originPath string) (*tlvm.Node, bool) {
		return &tlvm.Node{Kind: tlvm.NodeCode}, true
	}
	adapter.SerializeFunc = func(code *tlvm.Node) (string, error) {
		return "{ hint \"hi\"; }", nil
	}

	logger := &recordingLogger{}
	tr := &Transpiler{Adapter: adapter, Log: logger}
	tr.Run(context.Background(), origin, "class fn {};")

	sibling := filepath.Join(dir, "fn_test.sqf")
	data, err := os.ReadFile(sibling)
	require.NoError(t, err)
	assert.Equal(t, `hint "hi";`, string(data))
	assert.Empty(t, logger.errors)
}

func TestRunStopsOnPreprocessFailure(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	origin := filepath.Join(dir, "fn.sqc")

	adapter := tlvm.NewFakeAdapter()
	adapter.PreprocessFunc = func(text, originPath string) (string, *tlvm.Diagnostic) {
		return "", &tlvm.Diagnostic{Message: "bad include"}
	}
	called := false
	adapter.SecondaryFunc = func(text, originPath string) (*tlvm.Node, bool) {
		called = true
		return nil, false
	}

	logger := &recordingLogger{}
	tr := &Transpiler{Adapter: adapter, Log: logger}
	tr.Run(context.Background(), origin, "class fn {};")

	assert.False(t, called, "parse stage must not run after a preprocess failure")
	require.Len(t, logger.errors, 1)
	assert.NoFileExists(t, filepath.Join(dir, "fn.sqf"))
}

func TestRunStopsOnSecondaryParseFailure(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	origin := filepath.Join(dir, "fn.sqc")

	adapter := tlvm.NewFakeAdapter()
	adapter.SecondaryFunc = func(text, originPath string) (*tlvm.Node, bool) { return nil, false }
	serialized := false
	adapter.SerializeFunc = func(code *tlvm.Node) (string, error) {
		serialized = true
		return "", nil
	}

	logger := &recordingLogger{}
	tr := &Transpiler{Adapter: adapter, Log: logger}
	tr.Run(context.Background(), origin, "class fn {};")

	assert.False(t, serialized)
	require.Len(t, logger.errors, 1)
}

func TestSiblingPrimaryPathSwapsExtension(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "/a/b/fn.sqf", siblingPrimaryPath("/a/b/fn.sqc"))
}

func TestTrimOuterBracesStripsOnePairAndWhitespace(t *testing.T) {
	t.Parallel()
	assert.Equal(t, `hint "hi";`, trimOuterBraces("  { hint \"hi\"; }  "))
	assert.Equal(t, "not braces", trimOuterBraces("not braces"))
}
