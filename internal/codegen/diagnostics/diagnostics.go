// Package diagnostics accumulates the non-fatal conditions a pipeline run
// encounters: one shared, append-only Log travels alongside the
// DeclarationBundle so the host can report every UnknownBaseDefinition,
// UnmappableType, and EmptyStructure without any stage aborting the whole
// run. NameCollision is a defined kind, but the name resolver does not
// record its collisions in the Log.
package diagnostics

import "github.com/hl7gen/fhirgen/internal/codegen/ir"

// Diagnostic is one accumulated, non-fatal condition.
type Diagnostic struct {
	Kind      ir.AnnotationKind
	Structure string // the structure URL or name the diagnostic concerns
	Message   string
}

// Log is an append-only diagnostics accumulator. The zero value is ready to
// use.
type Log struct {
	entries []Diagnostic
}

// Add appends a diagnostic to the log.
func (l *Log) Add(kind ir.AnnotationKind, structure, message string) {
	l.entries = append(l.entries, Diagnostic{Kind: kind, Structure: structure, Message: message})
}

// Entries returns every diagnostic accumulated so far, in append order.
func (l *Log) Entries() []Diagnostic {
	return l.entries
}

// CountByKind tallies diagnostics per AnnotationKind, useful for a CLI
// summary or test assertion.
func (l *Log) CountByKind() map[ir.AnnotationKind]int {
	counts := make(map[ir.AnnotationKind]int)
	for _, d := range l.entries {
		counts[d.Kind]++
	}
	return counts
}

// FatalError describes a structure-level fatal condition as an error value.
// The pipeline does not construct one: it receives ChoiceWithoutTypes as
// structemit.Result.Fatal, omits that one structure, records a diagnostic
// in the Log, and continues with the rest of the run.
type FatalError struct {
	Structure string
	Reason    string
}

func (e *FatalError) Error() string {
	return "fhirgen: " + e.Structure + ": " + e.Reason
}
