// Command fhirgen runs the structural translator: it loads FHIR
// StructureDefinition/ValueSet bundles and reports the DeclarationBundle
// the five pipeline stages produce, behind a cobra root command.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	defer glog.Flush()

	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		glog.Flush()
		os.Exit(1)
	}
}

func execute() error {
	rootCmd := newRootCmd()
	// glog registers -v, -logtostderr etc. on flag.CommandLine; fold them
	// into the pflag set cobra parses so both live under one --help.
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	return rootCmd.Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fhirgen",
		Short: "fhirgen - FHIR StructureDefinition to typed domain model compiler",
		Long: `fhirgen translates FHIR StructureDefinition/ValueSet bundles into a
language-neutral declaration bundle: typed records, accessor/mutator/
existence traits, and constraint catalogs, ready for a downstream
per-language emitter.

It does not itself emit Rust, C++, Go, TypeScript, or Python source; it
stops at the declaration-bundle IR and reports what it built.`,
	}

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newAnalyzeCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("fhirgen version %s\n", version)
		},
	}
}
