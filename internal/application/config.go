package application

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-benford/internal/domain"
	"github.com/ahrav/go-benford/internal/ports"
)

// Grouping names an optional aggregation pass.
type Grouping string

// Supported groupings.
const (
	// GroupByCounty folds county-level counts per candidate across the
	// whole dataset.
	GroupByCounty Grouping = "by_county"
	// GroupByVoteType partitions by the dataset's vote-type buckets.
	GroupByVoteType Grouping = "by_vote_type"
	// GroupByMailStatus splits mail from non-mail ballots.
	GroupByMailStatus Grouping = "by_mail_status"
	// GroupByProvisionalStatus isolates provisional ballots.
	GroupByProvisionalStatus Grouping = "by_provisional_status"
	// GroupByState folds county-level counts per region.
	GroupByState Grouping = "by_state"
	// GroupByStateTotals folds state-level totals, one row per state.
	GroupByStateTotals Grouping = "by_state_totals"
)

// Dataset formats understood by the built-in loaders.
const (
	FormatClarityXML  = "clarity_xml"
	FormatCountyCSV   = "county_csv"
	FormatResultsJSON = "results_json"
)

// Environment variables that override file configuration.
const (
	EnvDigitMode   = "BENFORD_DIGIT_MODE"
	EnvConcurrency = "BENFORD_CONCURRENCY"
)

// Config is the on-disk run configuration. It is decoded strictly from
// YAML, validated, and then turned into immutable Settings.
type Config struct {
	// DigitMode selects the tested digit: "first", "second" or "last".
	DigitMode string `yaml:"digit_mode" validate:"required,digitmode"`
	// Groupings toggles the optional aggregation passes. An empty list
	// runs only by_county.
	Groupings []string `yaml:"groupings" validate:"unique,dive,oneof=by_county by_vote_type by_mail_status by_provisional_status by_state by_state_totals"`
	// Candidates is the ordered candidate set. It fixes iteration order
	// and the members eligible for reductions.
	Candidates []string `yaml:"candidates" validate:"max=100,unique,dive,required,max=100"`
	// Regions scopes per-region aggregation, e.g. ["GA", "PA"].
	Regions []string `yaml:"regions" validate:"max=100,unique,dive,regioncode"`
	// Reductions lists candidate subsets compared on their own.
	Reductions []ReductionConfig `yaml:"reductions" validate:"max=20,dive"`
	// Concurrency bounds parallel folds; 0 uses GOMAXPROCS.
	Concurrency int `yaml:"concurrency" validate:"min=0,max=256"`
	// MaxInputBytes caps the size of each dataset file; 0 is unlimited.
	MaxInputBytes int64 `yaml:"max_input_bytes" validate:"min=0"`
	// Datasets are the inputs processed in order.
	Datasets []DatasetConfig `yaml:"datasets" validate:"required,min=1,dive"`
}

// ReductionConfig names a subset of the candidate set.
type ReductionConfig struct {
	Name       string   `yaml:"name" validate:"required,max=100"`
	Candidates []string `yaml:"candidates" validate:"required,min=1,unique,dive,required"`
}

// DatasetConfig describes one input file.
type DatasetConfig struct {
	// Name identifies the dataset in logs and reports.
	Name string `yaml:"name" validate:"required,max=100"`
	// Format selects the loader and the grouping profile.
	Format string `yaml:"format" validate:"required,oneof=clarity_xml county_csv results_json"`
	// Path is the dataset file.
	Path string `yaml:"path" validate:"required"`
	// Label prefixes report titles, e.g. "GA" or "2020 Election".
	Label string `yaml:"label" validate:"max=100"`
	// Contest restricts Clarity XML input to one contest.
	Contest string `yaml:"contest" validate:"max=255"`
}

// ConfigLoader parses and validates run configuration.
type ConfigLoader struct {
	validator *validator.Validate
	lookupEnv func(string) (string, bool)
}

// NewConfigLoader creates a loader with the custom validators registered.
// Environment overrides are read from the process environment.
func NewConfigLoader() (*ConfigLoader, error) {
	v := validator.New()
	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	return &ConfigLoader{validator: v, lookupEnv: os.LookupEnv}, nil
}

// LoadFromFile reads, decodes, overrides from the environment and
// validates the configuration at path.
func (cl *ConfigLoader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, ports.NewConfigError("file", fmt.Errorf("failed to read file: %w", err))
	}
	cfg, err := cl.Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// LoadFromReader is LoadFromFile for an arbitrary reader. Relative
// dataset paths are left as given.
func (cl *ConfigLoader) LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return cl.Parse(data)
}

// Parse decodes YAML strictly, so typos in field names fail instead of
// being ignored, then applies environment overrides and validation.
func (cl *ConfigLoader) Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if err == io.EOF {
			return nil, ports.NewConfigError("document", ports.ErrConfigNotFound)
		}
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}

	if err := cl.applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cl.validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cl *ConfigLoader) applyEnvOverrides(cfg *Config) error {
	if v, ok := cl.lookupEnv(EnvDigitMode); ok && v != "" {
		cfg.DigitMode = v
	}
	if v, ok := cl.lookupEnv(EnvConcurrency); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return ports.NewConfigError(EnvConcurrency, fmt.Errorf("%w: %q is not an integer", domain.ErrInvalidConfiguration, v))
		}
		cfg.Concurrency = n
	}
	return nil
}

func (cl *ConfigLoader) validate(cfg *Config) error {
	if err := cl.validator.Struct(cfg); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}
	if err := validateSemantics(cfg); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}
	return nil
}

// validateSemantics checks rules struct tags cannot express: reductions
// must name configured candidates and dataset names must be unique.
func validateSemantics(cfg *Config) error {
	verr := domain.NewValidationError("Config")

	for _, r := range cfg.Reductions {
		for _, c := range r.Candidates {
			if !slices.Contains(cfg.Candidates, c) {
				verr.AddError(fmt.Sprintf("reduction %q names unknown candidate %q", r.Name, c))
			}
		}
	}

	names := make(map[string]struct{}, len(cfg.Datasets))
	for _, ds := range cfg.Datasets {
		if _, dup := names[ds.Name]; dup {
			verr.AddError(fmt.Sprintf("duplicate dataset name %q", ds.Name))
		}
		names[ds.Name] = struct{}{}
	}

	if slices.Contains(cfg.Groupings, string(GroupByState)) && len(cfg.Regions) == 0 {
		verr.AddError("by_state requires at least one region")
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

func (c *Config) resolvePaths(base string) {
	for i := range c.Datasets {
		if !filepath.IsAbs(c.Datasets[i].Path) {
			c.Datasets[i].Path = filepath.Join(base, c.Datasets[i].Path)
		}
	}
}

// Settings returns the immutable engine settings described by the
// configuration.
func (c *Config) Settings() (Settings, error) {
	mode, err := domain.ParseDigitMode(c.DigitMode)
	if err != nil {
		return Settings{}, ports.NewConfigError("digit_mode", err)
	}

	groupings := make([]Grouping, len(c.Groupings))
	for i, g := range c.Groupings {
		groupings[i] = Grouping(g)
	}
	reductions := make([]Reduction, len(c.Reductions))
	for i, r := range c.Reductions {
		reductions[i] = Reduction{Name: r.Name, Candidates: r.Candidates}
	}
	regions := make([]string, len(c.Regions))
	for i, r := range c.Regions {
		regions[i] = strings.ToUpper(r)
	}
	return NewSettings(mode, groupings, c.Candidates, regions, reductions, c.Concurrency), nil
}

// Settings is the process-wide run configuration handed to the engine at
// construction. Fields are unexported and accessors return copies, so a
// Settings value cannot be changed once built.
type Settings struct {
	mode        domain.DigitMode
	groupings   []Grouping
	candidates  []string
	regions     []string
	reductions  []Reduction
	concurrency int
}

// NewSettings builds Settings directly, mainly for tests and embedding.
// No groupings means by_county only, as in the file configuration.
// Repeated candidates and regions are collapsed to their first occurrence.
func NewSettings(mode domain.DigitMode, groupings []Grouping, candidates, regions []string, reductions []Reduction, concurrency int) Settings {
	if len(groupings) == 0 {
		groupings = []Grouping{GroupByCounty}
	}
	red := make([]Reduction, len(reductions))
	for i, r := range reductions {
		red[i] = Reduction{Name: r.Name, Candidates: slices.Clone(r.Candidates)}
	}
	return Settings{
		mode:        mode,
		groupings:   slices.Clone(groupings),
		candidates:  distinct(candidates),
		regions:     distinct(regions),
		reductions:  red,
		concurrency: concurrency,
	}
}

// Mode returns the digit mode.
func (s Settings) Mode() domain.DigitMode { return s.mode }

// Enabled reports whether grouping g should run.
func (s Settings) Enabled(g Grouping) bool { return slices.Contains(s.groupings, g) }

// Candidates returns the ordered candidate set.
func (s Settings) Candidates() []string { return slices.Clone(s.candidates) }

// Regions returns the configured region codes.
func (s Settings) Regions() []string { return slices.Clone(s.regions) }

// Reductions returns the configured candidate subsets.
func (s Settings) Reductions() []Reduction {
	out := make([]Reduction, len(s.reductions))
	for i, r := range s.reductions {
		out[i] = Reduction{Name: r.Name, Candidates: slices.Clone(r.Candidates)}
	}
	return out
}

// Concurrency returns the configured fold parallelism.
func (s Settings) Concurrency() int { return s.concurrency }
