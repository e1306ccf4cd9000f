package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hl7gen/fhirgen/internal/codegen/config"
	"github.com/hl7gen/fhirgen/internal/codegen/ir"
	"github.com/hl7gen/fhirgen/internal/codegen/loader"
	"github.com/hl7gen/fhirgen/internal/codegen/pipeline"
)

func newAnalyzeCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "analyze [structure-name]",
		Short: "Print the translated record and traits for one structure",
		Long: `Analyze runs the same pipeline as generate, then prints the fields,
capabilities, and constraint catalog the translator produced for a single
named structure, for inspecting one StructureDefinition's output without
generating the whole release.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]

			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}

			loaded, err := loader.Load(cfg.SpecsDir, cfg.Version)
			if err != nil {
				return fmt.Errorf("analyze: load %s: %w", cfg.Version, err)
			}

			bundle, log := pipeline.Run(pipeline.Input{
				Definitions: loaded.Definitions,
				ValueSets:   loaded.ValueSets,
				Config:      cfg,
			})

			rec, ok := pipeline.LookupRecord(bundle, name)
			if !ok {
				return fmt.Errorf("analyze: no record named %q in %s", name, cfg.Version)
			}

			printRecord(cmd, rec)
			printCapabilities(cmd, bundle, name)
			printConstraints(cmd, bundle, name)

			for _, d := range log.Entries() {
				if d.Structure == rec.SourceURL {
					fmt.Fprintf(cmd.OutOrStdout(), "diagnostic: %s: %s\n", d.Kind, d.Message)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "Path to a config file (YAML/JSON/TOML)")
	cmd.Flags().String("specs_dir", config.Defaults().SpecsDir, "Directory containing FHIR specification bundles")
	cmd.Flags().String("version", config.Defaults().Version, "FHIR release to process (r4, r4b, r5)")

	return cmd
}

func printRecord(cmd *cobra.Command, rec ir.TargetRecord) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s, base %s)\n", rec.Name, rec.Kind, orNone(rec.BaseName))
	for _, f := range rec.Fields {
		fmt.Fprintf(out, "  %-24s %s\n", f.Name, f.Type.String())
	}
}

func printCapabilities(cmd *cobra.Command, bundle ir.DeclarationBundle, name string) {
	out := cmd.OutOrStdout()
	for _, impl := range bundle.Impls {
		if impl.RecordName != name {
			continue
		}
		fmt.Fprintf(out, "  impl %s:\n", impl.InterfaceName)
		for _, m := range impl.Methods {
			fmt.Fprintf(out, "    %-24s %s\n", m.Method.Name, m.Kind)
		}
	}
}

func printConstraints(cmd *cobra.Command, bundle ir.DeclarationBundle, name string) {
	out := cmd.OutOrStdout()
	for _, cs := range bundle.Constraints {
		if cs.RecordName != name {
			continue
		}
		fmt.Fprintf(out, "  %d invariants, %d bindings, %d cardinalities\n",
			len(cs.Invariants), len(cs.Bindings), len(cs.Cardinalities))
	}
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
