package tlvm

import "context"

// FakeAdapter is an in-memory test double for Adapter. PreprocessFunc and
// ParseFunc default to identity/no-op behavior when nil, so tests only
// need to set the hooks they care about.
type FakeAdapter struct {
	PreprocessFunc func(text, originPath string) (string, *Diagnostic)
	ParseFunc      func(text, originPath string) (*Node, bool)
	SecondaryFunc  func(text, originPath string) (*Node, bool)
	SerializeFunc  func(code *Node) (string, error)

	Mounts []Mount

	logs chan LogEntry
}

// Mount records one physical-to-virtual registration made through Mount.
type Mount struct {
	Physical string
	Virtual  string
}

// NewFakeAdapter builds a FakeAdapter with a buffered log channel, so
// tests can Emit a handful of entries without a reader attached yet.
func NewFakeAdapter() *FakeAdapter {
	return &FakeAdapter{logs: make(chan LogEntry, 16)}
}

func (f *FakeAdapter) Preprocess(_ context.Context, text, originPath string) (string, *Diagnostic) {
	if f.PreprocessFunc != nil {
		return f.PreprocessFunc(text, originPath)
	}
	return text, nil
}

func (f *FakeAdapter) Parse(_ context.Context, text, originPath string) (*Node, bool) {
	if f.ParseFunc != nil {
		return f.ParseFunc(text, originPath)
	}
	return &Node{Kind: NodeCode}, true
}

func (f *FakeAdapter) Mount(_ context.Context, physicalPath, virtualPath string) error {
	f.Mounts = append(f.Mounts, Mount{Physical: physicalPath, Virtual: virtualPath})
	return nil
}

func (f *FakeAdapter) ParseSecondary(_ context.Context, text, originPath string) (*Node, bool) {
	if f.SecondaryFunc != nil {
		return f.SecondaryFunc(text, originPath)
	}
	return &Node{Kind: NodeCode}, true
}

func (f *FakeAdapter) Serialize(_ context.Context, code *Node) (string, error) {
	if f.SerializeFunc != nil {
		return f.SerializeFunc(code)
	}
	return "", nil
}

func (f *FakeAdapter) Logs() <-chan LogEntry { return f.logs }

// Emit pushes a log entry to a test that reads Logs().
func (f *FakeAdapter) Emit(e LogEntry) { f.logs <- e }

// CloseLogs closes the log channel, ending any router draining it.
func (f *FakeAdapter) CloseLogs() { close(f.logs) }
