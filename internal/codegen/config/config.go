// Package config binds the structural translator's run-level configuration:
// the recognized options plus the loader's own directory/package settings,
// layered from defaults, config file, environment, and bound CLI flags
// through viper before a run starts.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hl7gen/fhirgen/internal/codegen/names"
)

// TargetLanguage mirrors ir.TargetLanguage's string values, kept here
// without importing the ir package so config does not depend on it.
type TargetLanguage string

// Recognized target languages.
const (
	LangRust   TargetLanguage = "rust"
	LangCPP    TargetLanguage = "cpp"
	LangGo     TargetLanguage = "go"
	LangTS     TargetLanguage = "ts"
	LangPython TargetLanguage = "python"
)

// CollectionAccessorStyle names the two accessor styles a downstream
// emitter may choose between for collection-valued fields.
type CollectionAccessorStyle string

const (
	StyleSlice    CollectionAccessorStyle = "slice"
	StyleIterator CollectionAccessorStyle = "iterator"
)

// Config is the structural translator's complete run configuration: the
// recognized CLI/environment options, plus the loader's own directory and
// package settings.
type Config struct {
	// SpecsDir is the directory containing FHIR StructureDefinition/ValueSet
	// bundles.
	SpecsDir string `mapstructure:"specs_dir"`
	// OutputDir is where the downstream emitter would write generated
	// source; the core itself never writes files.
	OutputDir string `mapstructure:"output_dir"`
	// PackageName names the target package/namespace the downstream emitter
	// would use.
	PackageName string `mapstructure:"package_name"`
	// Version is the FHIR release being processed (r4, r4b, r5).
	Version string `mapstructure:"version"`

	TargetLanguage          TargetLanguage           `mapstructure:"target_language"`
	EmitValidation          bool                     `mapstructure:"emit_validation"`
	KnownProfileMap         map[string]string        `mapstructure:"known_profile_map"`
	ReservedWordPolicy      string                   `mapstructure:"reserved_word_policy"`
	CollectionAccessorStyle CollectionAccessorStyle  `mapstructure:"collection_accessor_style"`
}

// Defaults returns the zero-configuration baseline: Go target, no
// validation emission, empty profile overrides, underscore-escaped
// reserved words, slice-style accessors.
func Defaults() Config {
	return Config{
		SpecsDir:                "./specs",
		OutputDir:               "./pkg/fhir",
		PackageName:             "r4",
		Version:                 "r4",
		TargetLanguage:          LangGo,
		EmitValidation:          false,
		KnownProfileMap:         map[string]string{},
		ReservedWordPolicy:      "suffix_underscore",
		CollectionAccessorStyle: StyleSlice,
	}
}

// NamesPolicy translates the string-valued ReservedWordPolicy config option
// into names.ReservedWordPolicy, defaulting to SuffixUnderscore on any
// unrecognized value.
func (c Config) NamesPolicy() names.ReservedWordPolicy {
	if strings.EqualFold(c.ReservedWordPolicy, "prefix_k") {
		return names.PrefixK
	}
	return names.SuffixUnderscore
}

// Load builds a Config by layering, in increasing precedence: Defaults(),
// an optional config file (YAML/JSON/TOML, auto-detected by viper),
// environment variables prefixed FHIRGEN_, and finally any bound pflags
// (the CLI's own flag set).
func Load(configFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FHIRGEN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	defaults := Defaults()
	v.SetDefault("specs_dir", defaults.SpecsDir)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("package_name", defaults.PackageName)
	v.SetDefault("version", defaults.Version)
	v.SetDefault("target_language", string(defaults.TargetLanguage))
	v.SetDefault("emit_validation", defaults.EmitValidation)
	v.SetDefault("known_profile_map", defaults.KnownProfileMap)
	v.SetDefault("reserved_word_policy", defaults.ReservedWordPolicy)
	v.SetDefault("collection_accessor_style", string(defaults.CollectionAccessorStyle))

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
