package branch

import (
	"fmt"
	"strings"
)

// FeatureType classifies the kind of work a branch carries. The string value
// is the canonical token used both in generated names and on the wire.
type FeatureType string

const (
	Feature       FeatureType = "feature"
	Bugfix        FeatureType = "bugfix"
	Hotfix        FeatureType = "hotfix"
	Experiment    FeatureType = "experiment"
	Refactor      FeatureType = "refactor"
	Documentation FeatureType = "docs"
)

// AllFeatureTypes returns every feature type in declaration order.
func AllFeatureTypes() []FeatureType {
	return []FeatureType{Feature, Bugfix, Hotfix, Experiment, Refactor, Documentation}
}

// ParseFeatureType accepts a canonical token, case-insensitively.
// "documentation" is accepted as an alias for "docs".
func ParseFeatureType(s string) (FeatureType, error) {
	token := strings.ToLower(strings.TrimSpace(s))
	if token == "documentation" {
		return Documentation, nil
	}
	for _, ft := range AllFeatureTypes() {
		if string(ft) == token {
			return ft, nil
		}
	}
	return "", fmt.Errorf("unknown feature type %q", s)
}

// Valid reports whether ft is one of the known feature types.
func (ft FeatureType) Valid() bool {
	for _, known := range AllFeatureTypes() {
		if ft == known {
			return true
		}
	}
	return false
}

func (ft FeatureType) String() string {
	return string(ft)
}

// MarshalText implements encoding.TextMarshaler.
func (ft FeatureType) MarshalText() ([]byte, error) {
	if !ft.Valid() {
		return nil, fmt.Errorf("unknown feature type %q", string(ft))
	}
	return []byte(ft), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (ft *FeatureType) UnmarshalText(text []byte) error {
	parsed, err := ParseFeatureType(string(text))
	if err != nil {
		return err
	}
	*ft = parsed
	return nil
}
