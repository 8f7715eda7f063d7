package diagnostic

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a diagnostic message
type Severity int

const (
	Error Severity = iota
	Warning
	Info
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	default:
		return "unknown"
	}
}

// Code classifies a diagnostic raised during decoration.
type Code string

const (
	// MappingGap: no table entry for a field, pattern or property under the
	// active backend.
	MappingGap Code = "MappingGap"
	// TypeMismatch: a custom property or pattern is used with inconsistent types.
	TypeMismatch Code = "TypeMismatch"
	// InvalidTarget: a custom property is attached to a value that is not node-shaped.
	InvalidTarget Code = "InvalidTarget"
	// UnsupportedPayload: a custom property payload has no tagged storage variant.
	UnsupportedPayload Code = "UnsupportedPayload"
)

// Location is a secondary source position attached to a diagnostic.
type Location struct {
	Line    int
	Column  int
	Message string
}

// Diagnostic represents a single compiler error, warning, or info message
type Diagnostic struct {
	Severity Severity
	Code     Code // empty for uncategorised messages
	Message  string
	Line     int
	Column   int
	File     string // optional file path
	Hint     string // optional suggestion
	Related  []Location
}

// Diagnostics manages a collection of diagnostic messages
type Diagnostics struct {
	items []Diagnostic
}

// New creates a new empty Diagnostics collection
func New() *Diagnostics {
	return &Diagnostics{
		items: make([]Diagnostic, 0),
	}
}

// Add appends a fully built diagnostic.
func (d *Diagnostics) Add(item Diagnostic) {
	d.items = append(d.items, item)
}

// Errorf adds an error diagnostic with formatted message
func (d *Diagnostics) Errorf(line, col int, format string, args ...interface{}) {
	d.items = append(d.items, Diagnostic{
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   col,
	})
}

// Warningf adds a warning diagnostic with formatted message
func (d *Diagnostics) Warningf(line, col int, format string, args ...interface{}) {
	d.items = append(d.items, Diagnostic{
		Severity: Warning,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   col,
	})
}

// Reportf adds a coded diagnostic. MappingGap is reported as a warning,
// every other code as an error.
func (d *Diagnostics) Reportf(code Code, line, col int, format string, args ...interface{}) *Diagnostic {
	sev := Error
	if code == MappingGap {
		sev = Warning
	}
	d.items = append(d.items, Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Line:     line,
		Column:   col,
	})
	return &d.items[len(d.items)-1]
}

// HasErrors returns true if there are any error-level diagnostics
func (d *Diagnostics) HasErrors() bool {
	for _, item := range d.items {
		if item.Severity == Error {
			return true
		}
	}
	return false
}

// Errors returns only the error-level diagnostics
func (d *Diagnostics) Errors() []Diagnostic {
	errors := make([]Diagnostic, 0)
	for _, item := range d.items {
		if item.Severity == Error {
			errors = append(errors, item)
		}
	}
	return errors
}

// WithCode returns the diagnostics carrying code.
func (d *Diagnostics) WithCode(code Code) []Diagnostic {
	var out []Diagnostic
	for _, item := range d.items {
		if item.Code == code {
			out = append(out, item)
		}
	}
	return out
}

// All returns all diagnostics regardless of severity
func (d *Diagnostics) All() []Diagnostic {
	return d.items
}

// Count returns the total number of diagnostics
func (d *Diagnostics) Count() int {
	return len(d.items)
}

// ErrorCount returns the number of error-level diagnostics
func (d *Diagnostics) ErrorCount() int {
	count := 0
	for _, item := range d.items {
		if item.Severity == Error {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warning-level diagnostics
func (d *Diagnostics) WarningCount() int {
	count := 0
	for _, item := range d.items {
		if item.Severity == Warning {
			count++
		}
	}
	return count
}

// Format returns human-readable messages
// Output format:
//
//	error[TypeMismatch][marker.yaml:7:9]: property __mark is Str here but bool elsewhere
//	  note[marker.yaml:3:9]: first assigned here
//	  hint: use one payload type per property
func (d *Diagnostics) Format(filename string) string {
	return d.format(filename, plainStyle)
}

func (d *Diagnostics) format(filename string, st style) string {
	if len(d.items) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, item := range d.items {
		fileToUse := filename
		if item.File != "" {
			fileToUse = item.File
		}

		head := item.Severity.String()
		if item.Code != "" {
			head += "[" + string(item.Code) + "]"
		}
		builder.WriteString(fmt.Sprintf("%s[%s:%d:%d]: %s",
			st.severity(item.Severity, head),
			fileToUse,
			item.Line,
			item.Column,
			item.Message,
		))

		for _, rel := range item.Related {
			builder.WriteString(fmt.Sprintf("\n  %s[%s:%d:%d]: %s", st.note("note"), fileToUse, rel.Line, rel.Column, rel.Message))
		}

		if item.Hint != "" {
			builder.WriteString(fmt.Sprintf("\n  %s: %s", st.note("hint"), item.Hint))
		}

		if i < len(d.items)-1 {
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

// Clear removes all diagnostics from the collection
func (d *Diagnostics) Clear() {
	d.items = make([]Diagnostic, 0)
}
