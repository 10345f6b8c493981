// Package config defines canonical-tx settings and loads them with viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/inodb/canonical-tx/internal/cache"
	"github.com/inodb/canonical-tx/internal/override"
)

// FileName is the config file looked up in the home directory.
const FileName = ".canonical-tx.yaml"

// EnvPrefix prefixes environment overrides, e.g. CANONICAL_TX_WORKERS.
const EnvPrefix = "CANONICAL_TX"

// Config holds every setting for a resolution run.
type Config struct {
	Inputs       Inputs              `mapstructure:"inputs" yaml:"inputs"`
	Columns      cache.Columns       `mapstructure:"columns" yaml:"columns"`
	Overrides    []TableConfig       `mapstructure:"overrides" yaml:"overrides"`
	Perspectives []PerspectiveConfig `mapstructure:"perspectives" yaml:"perspectives"`
	Output       Output              `mapstructure:"output" yaml:"output"`
	Validation   Validation          `mapstructure:"validation" yaml:"validation"`
	Workers      int                 `mapstructure:"workers" yaml:"workers"`
}

// Inputs names the reference tables.
type Inputs struct {
	Biomart      string `mapstructure:"biomart" yaml:"biomart"`
	HGNC         string `mapstructure:"hgnc" yaml:"hgnc"`
	CancerGenes  string `mapstructure:"cancer_genes" yaml:"cancer_genes"`
	IgnoredGenes string `mapstructure:"ignored_genes" yaml:"ignored_genes"`
	// CacheDir holds the parsed BioMart catalog between runs. Empty disables caching.
	CacheDir string `mapstructure:"cache_dir" yaml:"cache_dir"`
}

// TableConfig is one isoform override table.
type TableConfig struct {
	Name    string           `mapstructure:"name" yaml:"name"`
	Path    string           `mapstructure:"path" yaml:"path"`
	Columns override.Columns `mapstructure:"columns" yaml:"columns"`
}

// PerspectiveConfig is a named override chain, highest priority first.
type PerspectiveConfig struct {
	Name  string       `mapstructure:"name" yaml:"name"`
	Chain []LinkConfig `mapstructure:"chain" yaml:"chain"`
}

// LinkConfig references an override table and the explanation it produces.
type LinkConfig struct {
	Table string `mapstructure:"table" yaml:"table"`
	Label string `mapstructure:"label" yaml:"label"`
}

// Output configures where results go.
type Output struct {
	Path    string `mapstructure:"path" yaml:"path"`
	DuckDB  string `mapstructure:"duckdb" yaml:"duckdb"`
	Metrics string `mapstructure:"metrics" yaml:"metrics"` // Prometheus textfile, optional
}

// Validation toggles optional integrity checks.
type Validation struct {
	FailOnAmbiguousSymbols bool `mapstructure:"fail_on_ambiguous_symbols" yaml:"fail_on_ambiguous_symbols"`
}

// Default returns the built-in configuration: the four curated tables and
// the ensembl, genome_nexus, uniprot and mskcc perspectives.
func Default() Config {
	return Config{
		Inputs: Inputs{
			Biomart:      "ensembl_biomart_geneids.transcript_info.txt",
			HGNC:         "hgnc_complete_set.txt",
			CancerGenes:  "oncokb_cancer_genes_list.txt",
			IgnoredGenes: "ignored_genes.txt",
		},
		Columns: cache.DefaultColumns(),
		Overrides: []TableConfig{
			{Name: "custom", Path: "isoform_overrides_genome_nexus.txt"},
			{Name: "uniprot", Path: "isoform_overrides_uniprot.txt"},
			{Name: "mskcc", Path: "isoform_overrides_at_mskcc.txt"},
			{Name: "oncokb", Path: "isoform_overrides_oncokb.txt"},
		},
		Perspectives: []PerspectiveConfig{
			{Name: "ensembl"},
			{Name: "genome_nexus", Chain: []LinkConfig{
				{Table: "custom", Label: "genome nexus isoform override"},
			}},
			{Name: "uniprot", Chain: []LinkConfig{
				{Table: "custom", Label: "manually override"},
				{Table: "uniprot", Label: "uniprot isoform override"},
			}},
			{Name: "mskcc", Chain: []LinkConfig{
				{Table: "oncokb", Label: "oncokb isoform override"},
				{Table: "mskcc", Label: "mskcc isoform override"},
				{Table: "custom", Label: "manually override"},
				{Table: "uniprot", Label: "uniprot isoform override"},
			}},
		},
		Output: Output{
			Path: "ensembl_biomart_canonical_transcripts_per_hgnc.txt",
		},
		Workers: runtime.NumCPU(),
	}
}

// DefaultPath returns ~/.canonical-tx.yaml, or "" if the home directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, FileName)
}

// SetDefaults registers Default() with v so unset keys fall back to it.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("inputs.biomart", d.Inputs.Biomart)
	v.SetDefault("inputs.hgnc", d.Inputs.HGNC)
	v.SetDefault("inputs.cancer_genes", d.Inputs.CancerGenes)
	v.SetDefault("inputs.ignored_genes", d.Inputs.IgnoredGenes)
	v.SetDefault("inputs.cache_dir", d.Inputs.CacheDir)
	v.SetDefault("columns.gene_id", d.Columns.GeneID)
	v.SetDefault("columns.transcript_id", d.Columns.TranscriptID)
	v.SetDefault("columns.symbol", d.Columns.Symbol)
	v.SetDefault("columns.is_canonical", d.Columns.IsCanonical)
	v.SetDefault("columns.protein_length", d.Columns.ProteinLength)
	v.SetDefault("columns.version", d.Columns.Version)
	v.SetDefault("overrides", tablesToMaps(d.Overrides))
	v.SetDefault("perspectives", perspectivesToMaps(d.Perspectives))
	v.SetDefault("output.path", d.Output.Path)
	v.SetDefault("output.duckdb", d.Output.DuckDB)
	v.SetDefault("output.metrics", d.Output.Metrics)
	v.SetDefault("validation.fail_on_ambiguous_symbols", d.Validation.FailOnAmbiguousSymbols)
	v.SetDefault("workers", d.Workers)
}

// Init configures v to read cfgFile (or ~/.canonical-tx.yaml when empty)
// and CANONICAL_TX_* environment variables. A missing default file is not
// an error.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		v.AddConfigPath(home)
		v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that tables and perspectives reference each other consistently.
func (c Config) Validate() error {
	tables := make(map[string]bool, len(c.Overrides))
	for _, t := range c.Overrides {
		if t.Name == "" {
			return fmt.Errorf("config: override table with empty name")
		}
		if tables[t.Name] {
			return fmt.Errorf("config: override table %q defined twice", t.Name)
		}
		tables[t.Name] = true
	}

	if len(c.Perspectives) == 0 {
		return fmt.Errorf("config: no perspectives defined")
	}
	seen := make(map[string]bool, len(c.Perspectives))
	for _, p := range c.Perspectives {
		if p.Name == "" {
			return fmt.Errorf("config: perspective with empty name")
		}
		if seen[p.Name] {
			return fmt.Errorf("config: perspective %q defined twice", p.Name)
		}
		seen[p.Name] = true
		for _, l := range p.Chain {
			if !tables[l.Table] {
				return fmt.Errorf("config: perspective %q references unknown table %q", p.Name, l.Table)
			}
		}
	}
	return nil
}

// Table returns the override table config with the given name.
func (c Config) Table(name string) (TableConfig, bool) {
	for _, t := range c.Overrides {
		if t.Name == name {
			return t, true
		}
	}
	return TableConfig{}, false
}

// UsedTables returns the names of tables referenced by any perspective, in
// first-use order. Unreferenced tables are not loaded.
func (c Config) UsedTables() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.Perspectives {
		for _, l := range p.Chain {
			if !seen[l.Table] {
				seen[l.Table] = true
				out = append(out, l.Table)
			}
		}
	}
	return out
}

func tablesToMaps(ts []TableConfig) []map[string]any {
	out := make([]map[string]any, len(ts))
	for i, t := range ts {
		out[i] = map[string]any{"name": t.Name, "path": t.Path}
	}
	return out
}

func perspectivesToMaps(ps []PerspectiveConfig) []map[string]any {
	out := make([]map[string]any, len(ps))
	for i, p := range ps {
		out[i] = map[string]any{"name": p.Name}
		if len(p.Chain) == 0 {
			continue
		}
		chain := make([]map[string]any, len(p.Chain))
		for j, l := range p.Chain {
			chain[j] = map[string]any{"table": l.Table, "label": l.Label}
		}
		out[i]["chain"] = chain
	}
	return out
}
