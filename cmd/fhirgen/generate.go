package main

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/hl7gen/fhirgen/internal/codegen/config"
	"github.com/hl7gen/fhirgen/internal/codegen/diagnostics"
	"github.com/hl7gen/fhirgen/internal/codegen/ir"
	"github.com/hl7gen/fhirgen/internal/codegen/loader"
	"github.com/hl7gen/fhirgen/internal/codegen/pipeline"
)

func newGenerateCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Translate FHIR StructureDefinitions into a declaration bundle",
		Long: `Generate loads FHIR StructureDefinition/ValueSet bundles from a specs
directory and runs the five structural-translator stages over them,
reporting the resulting records, traits, and constraint catalogs.

It does not write target-language source files; that is the concern of
a downstream, language-specific emitter this binary does not include.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("generate: %w", err)
			}

			versions := []string{strings.ToLower(cfg.Version)}
			if versions[0] == "all" {
				versions = []string{"r4", "r4b", "r5"}
			}

			for _, v := range versions {
				runConfig := cfg
				runConfig.Version = v

				glog.Infof("generate: loading StructureDefinitions from %s/%s", cfg.SpecsDir, v)
				loaded, err := loader.Load(cfg.SpecsDir, v)
				if err != nil {
					return fmt.Errorf("generate: load %s: %w", v, err)
				}

				bundle, log := pipeline.Run(pipeline.Input{
					Definitions: loaded.Definitions,
					ValueSets:   loaded.ValueSets,
					Config:      runConfig,
				})

				reportSummary(cmd, v, bundle, log.Entries())
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to a config file (YAML/JSON/TOML)")
	cmd.Flags().String("specs_dir", config.Defaults().SpecsDir, "Directory containing FHIR specification bundles")
	cmd.Flags().String("output_dir", config.Defaults().OutputDir, "Directory a downstream emitter would write generated source to")
	cmd.Flags().String("package_name", config.Defaults().PackageName, "Target package/namespace name")
	cmd.Flags().String("version", config.Defaults().Version, "FHIR release to process (r4, r4b, r5, all)")
	cmd.Flags().String("target_language", string(config.Defaults().TargetLanguage), "Target language for a downstream emitter (rust, cpp, go, ts, python)")
	cmd.Flags().Bool("emit_validation", config.Defaults().EmitValidation, "Whether a downstream emitter should include constraint validation")
	cmd.Flags().String("reserved_word_policy", config.Defaults().ReservedWordPolicy, "Reserved-identifier escaping policy (suffix_underscore, prefix_k)")
	cmd.Flags().String("collection_accessor_style", string(config.Defaults().CollectionAccessorStyle), "Collection accessor style (slice, iterator)")

	return cmd
}

func reportSummary(cmd *cobra.Command, version string, bundle ir.DeclarationBundle, entries []diagnostics.Diagnostic) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: %d records, %d interfaces, %d impls, %d constraint sets\n",
		version, len(bundle.Records), len(bundle.Interfaces), len(bundle.Impls), len(bundle.Constraints))

	if len(entries) == 0 {
		return
	}

	counts := map[string]int{}
	for _, d := range entries {
		counts[string(d.Kind)]++
	}
	fmt.Fprintf(out, "%s: %d diagnostics:\n", version, len(entries))
	for kind, n := range counts {
		fmt.Fprintf(out, "  %-24s %d\n", kind, n)
	}
}
