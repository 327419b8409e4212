package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Position is a zero-based line/column pair.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is a start/end Position pair, end-exclusive.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// DiagnosticSeverity is an integer-coded severity.
type DiagnosticSeverity int

const (
	SeverityError       DiagnosticSeverity = 1
	SeverityWarning     DiagnosticSeverity = 2
	SeverityInformation DiagnosticSeverity = 3
	SeverityHint        DiagnosticSeverity = 4
)

// Diagnostic is a code/range/message/severity record attached to a
// document.
type Diagnostic struct {
	Code     string             `json:"code"`
	Range    Range              `json:"range"`
	Message  string             `json:"message"`
	Severity DiagnosticSeverity `json:"severity"`
	Source   string             `json:"source"`
}

// TextDocumentIdentifier identifies a document by URI.
type TextDocumentIdentifier struct {
	URI string `json:"uri"`
}

// TextDocumentItem is the full payload for an opened document.
type TextDocumentItem struct {
	URI        string `json:"uri"`
	LanguageID string `json:"languageId"`
	Version    int    `json:"version"`
	Text       string `json:"text"`
}

// VersionedTextDocumentIdentifier identifies a document at a specific version.
type VersionedTextDocumentIdentifier struct {
	URI     string `json:"uri"`
	Version int    `json:"version"`
}

// TextDocumentContentChangeEvent is one entry of didChange's contentChanges.
// This server only ever advertises full-document sync, so Range/RangeLength
// are never populated by this server's own capability advertisement, but
// are accepted on decode for protocol completeness.
type TextDocumentContentChangeEvent struct {
	Range       *Range `json:"range,omitempty"`
	RangeLength *int   `json:"rangeLength,omitempty"`
	Text        string `json:"text"`
}

// WorkspaceFolder pairs a workspace root URI with a display name.
type WorkspaceFolder struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
}

// TraceMode is a string-tagged enum.
type TraceMode string

const (
	TraceOff      TraceMode = "off"
	TraceMessages TraceMode = "messages"
	TraceVerbose  TraceMode = "verbose"
)

// MessageType is the integer severity of a window/logMessage notification.
type MessageType int

const (
	MessageError   MessageType = 1
	MessageWarning MessageType = 2
	MessageInfo    MessageType = 3
	MessageLog     MessageType = 4
)

// ResourceOperation is one flag of the ResourceOperations bitmask.
type ResourceOperation string

const (
	ResourceOperationCreate ResourceOperation = "create"
	ResourceOperationRename ResourceOperation = "rename"
	ResourceOperationDelete ResourceOperation = "delete"
)

// ResourceOperations is a set-of-flags type with named combinators rather
// than a plain integer alias. It decodes from a JSON array of string tags
// and encodes back to the same array form.
type ResourceOperations struct {
	create bool
	rename bool
	delete bool
}

// WithCreate returns a copy of r with the create flag set.
func (r ResourceOperations) WithCreate() ResourceOperations { r.create = true; return r }

// WithRename returns a copy of r with the rename flag set.
func (r ResourceOperations) WithRename() ResourceOperations { r.rename = true; return r }

// WithDelete returns a copy of r with the delete flag set.
func (r ResourceOperations) WithDelete() ResourceOperations { r.delete = true; return r }

// Has reports whether op is set.
func (r ResourceOperations) Has(op ResourceOperation) bool {
	switch op {
	case ResourceOperationCreate:
		return r.create
	case ResourceOperationRename:
		return r.rename
	case ResourceOperationDelete:
		return r.delete
	default:
		return false
	}
}

// MarshalJSON encodes the set as a JSON array of tags, in a fixed order.
func (r ResourceOperations) MarshalJSON() ([]byte, error) {
	var tags []string
	if r.create {
		tags = append(tags, string(ResourceOperationCreate))
	}
	if r.rename {
		tags = append(tags, string(ResourceOperationRename))
	}
	if r.delete {
		tags = append(tags, string(ResourceOperationDelete))
	}
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

// UnmarshalJSON decodes a JSON array of tags into the flag set.
func (r *ResourceOperations) UnmarshalJSON(data []byte) error {
	var tags []string
	if err := json.Unmarshal(data, &tags); err != nil {
		return fmt.Errorf("resourceOperations: expected array of strings: %w", err)
	}
	var out ResourceOperations
	for _, t := range tags {
		switch ResourceOperation(strings.TrimSpace(t)) {
		case ResourceOperationCreate:
			out.create = true
		case ResourceOperationRename:
			out.rename = true
		case ResourceOperationDelete:
			out.delete = true
		default:
			return fmt.Errorf("resourceOperations: unknown tag %q", t)
		}
	}
	*r = out
	return nil
}

// Experimental carries arbitrary client/server experimental data that must
// survive an encode/decode round trip unexamined.
type Experimental struct {
	raw json.RawMessage
}

// MarshalJSON returns the stored raw value, or "null" if none was set.
func (e Experimental) MarshalJSON() ([]byte, error) {
	if len(e.raw) == 0 {
		return []byte("null"), nil
	}
	return e.raw, nil
}

// UnmarshalJSON stores the raw value verbatim for later round-tripping.
func (e *Experimental) UnmarshalJSON(data []byte) error {
	cp := make(json.RawMessage, len(data))
	copy(cp, data)
	e.raw = cp
	return nil
}

// IsEmpty reports whether no experimental payload was carried.
func (e Experimental) IsEmpty() bool {
	return len(e.raw) == 0 || string(e.raw) == "null"
}
