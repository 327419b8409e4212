package analysis

import (
	"fmt"
	"strings"

	"github.com/wharflab/sqfls/internal/protocol"
	"github.com/wharflab/sqfls/internal/tlvm"
)

const source = "sqfls"

// Diagnostic codes for the variable-scope analyzer. L-0007 uses its own
// code string rather than reusing L-0006's.
const (
	CodeFatal              = "FATAL"
	CodeHidesDeclaration   = "L-0001"
	CodeVariableNotDefined = "L-0002"
	CodeMissingUnderscore  = "L-0003"
	CodeMissingVariable    = "L-0004"
	CodeMalformedParams    = "L-0005"
	CodeArraySizeMismatch  = "L-0006"
	CodeTypeMismatch       = "L-0007"
)

func pointRange(line, column int) protocol.Range {
	p := protocol.Position{Line: line - 1, Character: column}
	return protocol.Range{Start: p, End: p}
}

func diagAt(tok tlvm.Token, code, message string, severity protocol.DiagnosticSeverity) protocol.Diagnostic {
	return protocol.Diagnostic{
		Code:     code,
		Range:    pointRange(tok.Line, tok.Column),
		Message:  message,
		Severity: severity,
		Source:   source,
	}
}

func fatalDiagnostic(message string) protocol.Diagnostic {
	zero := protocol.Position{Line: 0, Character: 0}
	return protocol.Diagnostic{
		Code:     CodeFatal,
		Range:    protocol.Range{Start: zero, End: zero},
		Message:  message,
		Severity: protocol.SeverityError,
		Source:   source,
	}
}

func raiseL0001(tok tlvm.Token, variable string) protocol.Diagnostic {
	return diagAt(tok, CodeHidesDeclaration, fmt.Sprintf("'%s' hides previous declaration.", variable), protocol.SeverityWarning)
}

func raiseL0002(tok tlvm.Token, variable string) protocol.Diagnostic {
	return diagAt(tok, CodeVariableNotDefined, fmt.Sprintf("Variable '%s' not defined.", variable), protocol.SeverityWarning)
}

func raiseL0003(tok tlvm.Token, variable string) protocol.Diagnostic {
	return diagAt(tok, CodeMissingUnderscore, fmt.Sprintf("'%s' is not starting with an underscore ('_').", variable), protocol.SeverityError)
}

// raiseL0004, raiseL0005, raiseL0006 and raiseL0007 build the reserved
// params-validation diagnostic shapes. No walker code currently
// constructs a params/private literal well enough to trigger them — this
// server has no type-checker at the TL VM adapter boundary — but the
// shapes exist so a future params validator has somewhere to plug in.

func raiseL0004(tok tlvm.Token) protocol.Diagnostic {
	return diagAt(tok, CodeMissingVariable, "Missing variable string.", protocol.SeverityError)
}

func raiseL0005(tok tlvm.Token, additional string) protocol.Diagnostic {
	return diagAt(tok, CodeMalformedParams, "Format Error: "+additional, protocol.SeverityError)
}

func raiseL0006(tok tlvm.Token, minInclusive, maxInclusive *int, actual int) protocol.Diagnostic {
	var b strings.Builder
	fmt.Fprintf(&b, "Array Size Mismatch. Got %d.", actual)
	switch {
	case minInclusive != nil && maxInclusive != nil:
		fmt.Fprintf(&b, " Value was expected to be in between %d - %d", *minInclusive, *maxInclusive)
	case minInclusive != nil:
		fmt.Fprintf(&b, " Value was expected to be greater than %d", *minInclusive)
	case maxInclusive != nil:
		fmt.Fprintf(&b, " Value was expected to be less than or equal to %d", *maxInclusive)
	}
	return diagAt(tok, CodeArraySizeMismatch, b.String(), protocol.SeverityError)
}

func raiseL0007(tok tlvm.Token, expected []string, got string) protocol.Diagnostic {
	var b strings.Builder
	b.WriteString("Type Mismatch")
	if got != "" {
		fmt.Fprintf(&b, ". Got %s", got)
	}
	if len(expected) == 1 {
		fmt.Fprintf(&b, ". Expected %s.", expected[0])
	} else {
		b.WriteString(". Expected one of { ")
		b.WriteString(strings.Join(expected, ", "))
		b.WriteString(" }.")
	}
	return diagAt(tok, CodeTypeMismatch, b.String(), protocol.SeverityError)
}
