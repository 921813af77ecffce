package branch

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultPrefixPattern is the template used when none is configured.
const DefaultPrefixPattern = "{workspace}/{username}-{machine}/{feature}"

// DefaultMaxNameLength caps generated names when none is configured.
const DefaultMaxNameLength = 100

// Template placeholders recognised in BranchPrefixPattern.
const (
	PlaceholderWorkspace = "{workspace}"
	PlaceholderUsername  = "{username}"
	PlaceholderMachine   = "{machine}"
	PlaceholderFeature   = "{feature}"
)

// Config drives branch name generation. It is treated as an immutable
// value: replacing it means building a new Generator.
type Config struct {
	AutoCreateBranches  bool          `json:"auto_create_branches" toml:"auto_create_branches" yaml:"auto_create_branches"`
	DefaultFeatureType  FeatureType   `json:"default_feature_type" toml:"default_feature_type" yaml:"default_feature_type"`
	BranchPrefixPattern string        `json:"branch_prefix_pattern" toml:"branch_prefix_pattern" yaml:"branch_prefix_pattern"`
	MaxBranchNameLength int           `json:"max_branch_name_length" toml:"max_branch_name_length" yaml:"max_branch_name_length"`
	AllowedFeatureTypes []FeatureType `json:"allowed_feature_types" toml:"allowed_feature_types" yaml:"allowed_feature_types"`
}

// DefaultConfig returns the configuration used on first run.
func DefaultConfig() Config {
	return Config{
		AutoCreateBranches:  true,
		DefaultFeatureType:  Feature,
		BranchPrefixPattern: DefaultPrefixPattern,
		MaxBranchNameLength: DefaultMaxNameLength,
		AllowedFeatureTypes: AllFeatureTypes(),
	}
}

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid branch config")

// Validate checks that the config can drive a generator.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BranchPrefixPattern) == "" {
		return fmt.Errorf("%w: branch prefix pattern cannot be empty", ErrInvalidConfig)
	}
	if c.MaxBranchNameLength <= 0 {
		return fmt.Errorf("%w: max branch name length must be positive, got %d", ErrInvalidConfig, c.MaxBranchNameLength)
	}
	if !c.DefaultFeatureType.Valid() {
		return fmt.Errorf("%w: unknown default feature type %q", ErrInvalidConfig, c.DefaultFeatureType)
	}
	if len(c.AllowedFeatureTypes) == 0 {
		return fmt.Errorf("%w: at least one feature type must be allowed", ErrInvalidConfig)
	}

	seen := make(map[FeatureType]bool, len(c.AllowedFeatureTypes))
	for _, ft := range c.AllowedFeatureTypes {
		if !ft.Valid() {
			return fmt.Errorf("%w: unknown feature type %q", ErrInvalidConfig, ft)
		}
		if seen[ft] {
			return fmt.Errorf("%w: duplicate feature type %q", ErrInvalidConfig, ft)
		}
		seen[ft] = true
	}
	return nil
}

// Allows reports whether ft is in AllowedFeatureTypes.
func (c Config) Allows(ft FeatureType) bool {
	for _, allowed := range c.AllowedFeatureTypes {
		if allowed == ft {
			return true
		}
	}
	return false
}

func (c Config) clone() Config {
	out := c
	out.AllowedFeatureTypes = append([]FeatureType(nil), c.AllowedFeatureTypes...)
	return out
}
