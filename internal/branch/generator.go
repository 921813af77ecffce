// Package branch turns naming patterns into validated git branch names.
//
// A Generator pairs an immutable Config with the local system identity.
// Generation is pure: it never touches a repository, so callers that need
// existence checks or checkouts go through the git driver.
package branch

import (
	"strings"

	"branchkit/internal/sysinfo"
)

// Pattern is the template-fill input for one generated name.
type Pattern struct {
	Workspace   string      `json:"workspace" yaml:"workspace"`
	Username    string      `json:"username" yaml:"username"`
	Machine     string      `json:"machine" yaml:"machine"`
	FeatureType FeatureType `json:"feature_type" yaml:"feature_type"`
	Description *string     `json:"description,omitempty" yaml:"description,omitempty"`
}

// Generator produces branch names from patterns.
type Generator struct {
	config Config
	system sysinfo.Info
}

// NewGenerator builds a generator. The config is copied so later mutation of
// the caller's slice cannot leak into generation.
func NewGenerator(cfg Config, system sysinfo.Info) *Generator {
	return &Generator{config: cfg.clone(), system: system}
}

// Config returns a copy of the generator's configuration.
func (g *Generator) Config() Config {
	return g.config.clone()
}

// SystemInfo returns the identity the generator was built with.
func (g *Generator) SystemInfo() sysinfo.Info {
	return g.system
}

// Generate fills the prefix template from p and validates the result.
// It does not check p.FeatureType against AllowedFeatureTypes.
func (g *Generator) Generate(p Pattern) (string, error) {
	name := strings.NewReplacer(
		PlaceholderWorkspace, Sanitize(p.Workspace),
		PlaceholderUsername, Sanitize(p.Username),
		PlaceholderMachine, Sanitize(p.Machine),
		PlaceholderFeature, string(p.FeatureType),
	).Replace(g.config.BranchPrefixPattern)

	if p.Description != nil {
		if desc := Sanitize(*p.Description); desc != "" {
			name = name + "-" + desc
		}
	}

	name = truncate(name, g.config.MaxBranchNameLength)

	if err := ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// SuggestPattern combines the resolved system identity with a workspace name.
// A nil feature type selects the configured default.
func (g *Generator) SuggestPattern(workspace string, featureType *FeatureType) Pattern {
	ft := g.config.DefaultFeatureType
	if featureType != nil {
		ft = *featureType
	}
	return Pattern{
		Workspace:   workspace,
		Username:    g.system.Username,
		Machine:     g.system.MachineName,
		FeatureType: ft,
	}
}

// truncate cuts name to max runes and strips trailing hyphens left behind.
func truncate(name string, max int) string {
	runes := []rune(name)
	if max <= 0 || len(runes) <= max {
		return name
	}
	return strings.TrimRight(string(runes[:max]), "-")
}
