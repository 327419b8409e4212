package protocol

// InitializeParams is the payload of the initialize request.
type InitializeParams struct {
	ProcessID             *int              `json:"processId,omitempty"`
	RootURI               *string           `json:"rootUri,omitempty"`
	WorkspaceFolders      []WorkspaceFolder `json:"workspaceFolders,omitempty"`
	InitializationOptions *Experimental     `json:"initializationOptions,omitempty"`
	Trace                 TraceMode         `json:"trace,omitempty"`
}

// ServerInfo advertises the server's name and version in InitializeResult.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// TextDocumentSyncKind selects how document content changes are reported.
type TextDocumentSyncKind int

const (
	SyncNone TextDocumentSyncKind = 0
	SyncFull TextDocumentSyncKind = 1
)

// SaveOptions configures the didSave notification.
type SaveOptions struct {
	IncludeText bool `json:"includeText"`
}

// TextDocumentSyncOptions is the structured form of the textDocumentSync
// capability: open/close notifications, the change-sync kind, and save
// behavior.
type TextDocumentSyncOptions struct {
	OpenClose bool                 `json:"openClose"`
	Change    TextDocumentSyncKind `json:"change"`
	WillSave  bool                 `json:"willSave"`
	Save      *SaveOptions         `json:"save,omitempty"`
}

// DocumentFilter scopes a provider registration to documents of one
// language.
type DocumentFilter struct {
	Language string `json:"language,omitempty"`
	Scheme   string `json:"scheme,omitempty"`
	Pattern  string `json:"pattern,omitempty"`
}

// FoldingRangeRegistrationOptions scopes the folding-range provider via a
// document selector.
type FoldingRangeRegistrationOptions struct {
	DocumentSelector []DocumentFilter `json:"documentSelector,omitempty"`
}

// WorkspaceFoldersServerCapabilities advertises workspace-folder support.
type WorkspaceFoldersServerCapabilities struct {
	Supported           bool `json:"supported"`
	ChangeNotifications bool `json:"changeNotifications"`
}

// WorkspaceServerCapabilities carries the workspace sub-block of
// ServerCapabilities.
type WorkspaceServerCapabilities struct {
	WorkspaceFolders WorkspaceFoldersServerCapabilities `json:"workspaceFolders"`
	FileOperations   *FileOperationsServerCapabilities  `json:"fileOperations,omitempty"`
}

// FileOperationsServerCapabilities names, via ResourceOperations, which
// workspace/didChangeWatchedFiles-adjacent resource operations the server
// cares about.
type FileOperationsServerCapabilities struct {
	DidCreate ResourceOperations `json:"didCreate"`
	DidRename ResourceOperations `json:"didRename"`
	DidDelete ResourceOperations `json:"didDelete"`
}

// ServerCapabilities is the capability set this server advertises at
// initialize time.
type ServerCapabilities struct {
	TextDocumentSync     *TextDocumentSyncOptions         `json:"textDocumentSync,omitempty"`
	FoldingRangeProvider *FoldingRangeRegistrationOptions `json:"foldingRangeProvider,omitempty"`
	CompletionProvider   *CompletionOptions               `json:"completionProvider,omitempty"`
	Workspace            WorkspaceServerCapabilities      `json:"workspace"`
}

// CompletionOptions advertises completion trigger characters.
type CompletionOptions struct {
	TriggerCharacters []string `json:"triggerCharacters,omitempty"`
}

// InitializeResult is the response payload for initialize.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}

// DidChangeConfigurationParams is the payload of
// workspace/didChangeConfiguration. Settings is left as a raw envelope
// because this server reads only a nested subset defensively rather than
// decoding a fixed schema.
type DidChangeConfigurationParams struct {
	Settings Experimental `json:"settings"`
}

// DidChangeTextDocumentParams is the payload of textDocument/didChange.
type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

// FoldingRangeKind names the semantic category of a folding range.
type FoldingRangeKind string

const (
	FoldingRangeRegion FoldingRangeKind = "region"
)

// FoldingRange is one collapsible range, addressed by start/end line and
// optional start/end character.
type FoldingRange struct {
	StartLine      int               `json:"startLine"`
	StartCharacter *int              `json:"startCharacter,omitempty"`
	EndLine        int               `json:"endLine"`
	EndCharacter   *int              `json:"endCharacter,omitempty"`
	Kind           *FoldingRangeKind `json:"kind,omitempty"`
}

// FoldingRangeParams is the payload of textDocument/foldingRange.
type FoldingRangeParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// CompletionTriggerKind names why a completion request fired.
type CompletionTriggerKind int

const (
	CompletionTriggerInvoked        CompletionTriggerKind = 1
	CompletionTriggerCharacter      CompletionTriggerKind = 2
	CompletionTriggerIncompleteEdit CompletionTriggerKind = 3
)

// CompletionContext carries the reason a completion request was sent.
type CompletionContext struct {
	TriggerKind      CompletionTriggerKind `json:"triggerKind"`
	TriggerCharacter string                `json:"triggerCharacter,omitempty"`
}

// CompletionParams is the payload of textDocument/completion.
type CompletionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
	Context      *CompletionContext     `json:"context,omitempty"`
}

// CompletionItemKind is the integer-coded kind of a completion entry.
type CompletionItemKind int

const (
	CompletionItemVariable CompletionItemKind = 6
	CompletionItemFunction CompletionItemKind = 3
)

// CompletionItem is one completion entry.
type CompletionItem struct {
	Label  string             `json:"label"`
	Kind   CompletionItemKind `json:"kind,omitempty"`
	Detail string             `json:"detail,omitempty"`
}

// CompletionList is the response payload for textDocument/completion. Per
// the Open Question decision in DESIGN.md, this server always returns an
// empty, complete list: navigation-hint cursor resolution is fully
// implemented and exercised by tests, but no completion catalog exists yet.
type CompletionList struct {
	IsIncomplete bool             `json:"isIncomplete"`
	Items        []CompletionItem `json:"items"`
}

// PublishDiagnosticsParams is the payload of the outbound
// textDocument/publishDiagnostics notification.
type PublishDiagnosticsParams struct {
	URI         string       `json:"uri"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// LogMessageParams is the payload of the outbound window/logMessage
// notification.
type LogMessageParams struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}
