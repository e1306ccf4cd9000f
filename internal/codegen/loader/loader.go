// Package loader reads FHIR specification bundles off disk into the model
// types the pipeline consumes: profiles-types.json, profiles-resources.json,
// and valuesets.json, one release directory at a time.
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/hl7gen/fhirgen/internal/codegen/model"
)

// Result is everything the pipeline needs out of one FHIR release's specs
// directory.
type Result struct {
	Definitions []*model.StructureDefinition
	ValueSets   *model.ValueSetIndex
}

// Load reads profiles-types.json, profiles-resources.json and
// valuesets.json from specsDir/version.
func Load(specsDir, version string) (Result, error) {
	dir := filepath.Join(specsDir, version)

	var valueSets []*model.ValueSet
	var codeSystems []*model.CodeSystem

	vsPath := filepath.Join(dir, "valuesets.json")
	if data, err := os.ReadFile(vsPath); err == nil {
		vs, cs, err := extractValueSetsAndCodeSystems(data)
		if err != nil {
			glog.Warningf("loader: %s: failed to parse value sets: %v", vsPath, err)
		} else {
			valueSets = vs
			codeSystems = cs
		}
	} else {
		glog.Warningf("loader: %s: %v (continuing without required-binding enums)", vsPath, err)
	}

	var allSDs []*model.StructureDefinition

	typesSDs, err := loadStructureDefinitions(filepath.Join(dir, "profiles-types.json"))
	if err != nil {
		return Result{}, fmt.Errorf("loader: load datatypes: %w", err)
	}
	allSDs = append(allSDs, typesSDs...)

	resourceSDs, err := loadStructureDefinitions(filepath.Join(dir, "profiles-resources.json"))
	if err != nil {
		return Result{}, fmt.Errorf("loader: load resources: %w", err)
	}
	allSDs = append(allSDs, resourceSDs...)

	glog.V(1).Infof("loader: loaded %d StructureDefinitions from %s", len(allSDs), dir)

	return Result{
		Definitions: allSDs,
		ValueSets:   model.NewValueSetIndex(valueSets, codeSystems),
	}, nil
}

// loadStructureDefinitions reads one Bundle file and extracts every
// StructureDefinition entry it carries. A missing file is not an error: a
// release's specs directory may split resources and datatypes differently
// across versions, and the pipeline tolerates an empty definition set.
func loadStructureDefinitions(path string) ([]*model.StructureDefinition, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		glog.V(1).Infof("loader: %s not present, skipping", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	bundle, err := model.ParseBundle(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	sds, err := model.ExtractStructureDefinitions(bundle)
	if err != nil {
		return nil, fmt.Errorf("extract from %s: %w", path, err)
	}
	return sds, nil
}

// extractValueSetsAndCodeSystems pulls every ValueSet and CodeSystem entry
// out of a Bundle file, the way profiles-types.json mixes multiple resource
// types in one document.
func extractValueSetsAndCodeSystems(data []byte) ([]*model.ValueSet, []*model.CodeSystem, error) {
	bundle, err := model.ParseBundle(data)
	if err != nil {
		return nil, nil, err
	}

	var valueSets []*model.ValueSet
	var codeSystems []*model.CodeSystem
	for _, entry := range bundle.Entry {
		if len(entry.Resource) == 0 {
			continue
		}
		var peek struct {
			ResourceType string `json:"resourceType"`
		}
		if err := json.Unmarshal(entry.Resource, &peek); err != nil {
			continue
		}
		switch peek.ResourceType {
		case "ValueSet":
			vs, err := model.ParseValueSet(entry.Resource)
			if err != nil {
				glog.Warningf("loader: skipping malformed ValueSet: %v", err)
				continue
			}
			valueSets = append(valueSets, vs)
		case "CodeSystem":
			var cs model.CodeSystem
			if err := json.Unmarshal(entry.Resource, &cs); err != nil {
				glog.Warningf("loader: skipping malformed CodeSystem: %v", err)
				continue
			}
			codeSystems = append(codeSystems, &cs)
		}
	}
	return valueSets, codeSystems, nil
}
