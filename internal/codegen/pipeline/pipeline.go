// Package pipeline orchestrates the five structural-translator stages in
// dependency order and assembles their output into one DeclarationBundle,
// processing structures in a fixed, deterministic order so repeated runs
// over the same input produce byte-identical output.
package pipeline

import (
	"fmt"
	"sort"

	"github.com/hl7gen/fhirgen/internal/codegen/config"
	"github.com/hl7gen/fhirgen/internal/codegen/diagnostics"
	"github.com/hl7gen/fhirgen/internal/codegen/inherit"
	"github.com/hl7gen/fhirgen/internal/codegen/ir"
	"github.com/hl7gen/fhirgen/internal/codegen/model"
	"github.com/hl7gen/fhirgen/internal/codegen/names"
	"github.com/hl7gen/fhirgen/internal/codegen/structemit"
	"github.com/hl7gen/fhirgen/internal/codegen/traitemit"
	"github.com/hl7gen/fhirgen/internal/codegen/typemap"
)

// Input is everything a Run needs: every loaded StructureDefinition and the
// ValueSet index used for required-binding enum resolution.
type Input struct {
	Definitions []*model.StructureDefinition
	ValueSets   *model.ValueSetIndex
	Config      config.Config
}

// Run executes the five stages over in, in dependency order (Name Resolver
// ← Inheritance Resolver ← Type Mapper ← Structure Emitter ← Trait Emitter),
// processing structures in lexicographic URL order, and returns the
// completed DeclarationBundle plus the accumulated diagnostics.
func Run(in Input) (ir.DeclarationBundle, *diagnostics.Log) {
	log := &diagnostics.Log{}

	ordered := make([]*model.StructureDefinition, len(in.Definitions))
	copy(ordered, in.Definitions)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].URL < ordered[j].URL })

	nameResolver := names.NewResolver(in.Config.NamesPolicy())
	inheritResolver := inherit.NewResolver(ordered, in.Config.KnownProfileMap)
	mapper := typemap.NewMapper(in.ValueSets)

	structEmitter := structemit.New(nameResolver, inheritResolver, mapper, log)
	traitEmitter := traitemit.New(nameResolver, inheritResolver)

	var bundle ir.DeclarationBundle

	for _, sd := range ordered {
		if !sd.IsResource() && !sd.IsComplexType() {
			continue // primitives and logical models carry no record of their own
		}

		structResult := structEmitter.Emit(sd)

		if structResult.Fatal {
			log.Add(ir.AnnotationUnmappableType, sd.URL, structResult.FatalReason)
			continue // ChoiceWithoutTypes: fatal, isolated to this structure alone
		}

		bundle.Records = append(bundle.Records, structResult.Record)
		bundle.Records = append(bundle.Records, structResult.Siblings...)

		capResult := traitEmitter.EmitCapabilities(structResult.Record, sd)
		bundle.Interfaces = append(bundle.Interfaces, dedupeInterfaces(bundle.Interfaces, capResult.Interfaces)...)
		bundle.Impls = append(bundle.Impls, capResult.Impls...)

		resourceType := inheritResolver.ResolveCoreResourceType(sd)
		bundle.Constraints = append(bundle.Constraints, traitemit.BuildConstraintSet(structResult.Record, sd, resourceType))
	}

	return bundle, log
}

// LookupRecord finds a record by name within a completed bundle, primarily
// useful to tests and to a downstream emitter resolving field types.
func LookupRecord(bundle ir.DeclarationBundle, name string) (ir.TargetRecord, bool) {
	for _, r := range bundle.Records {
		if r.Name == name {
			return r, true
		}
	}
	return ir.TargetRecord{}, false
}

// dedupeInterfaces filters out interfaces from incoming that already exist
// in existing, so a capability shared across many structures
// (ResourceAccessors, DomainResourceAccessors) is not duplicated in the
// bundle. Two interfaces count as the same when they have the same Name and
// the same number of methods; method names and types are not compared.
func dedupeInterfaces(existing, incoming []ir.TargetInterface) []ir.TargetInterface {
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[ifaceKey(e)] = true
	}
	var out []ir.TargetInterface
	for _, i := range incoming {
		key := ifaceKey(i)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, i)
	}
	return out
}

func ifaceKey(i ir.TargetInterface) string {
	return fmt.Sprintf("%s/%d", i.Name, len(i.Methods))
}
