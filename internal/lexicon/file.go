package lexicon

import (
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// ErrEmptyFile is returned when a lexicon file defines no rules.
var ErrEmptyFile = errors.New("lexicon file has no rules")

// File is the on-disk lexicon format.
//
//	rules:
//	  - phrase: Chris
//	    replacement: Kris
type File struct {
	// Extend keeps the built-in rules and appends these after them.
	Extend bool   `yaml:"extend"`
	Rules  []Rule `yaml:"rules"`
}

// Load reads a lexicon file. A leading ~ in path is expanded.
func Load(path string) ([]Rule, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("unable to expand lexicon path: %w", err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("unable to read lexicon file: %w", err)
	}

	return Parse(data)
}

// Parse decodes lexicon rules from YAML.
func Parse(data []byte) ([]Rule, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unable to parse lexicon file: %w", err)
	}

	for i, r := range f.Rules {
		if r.Phrase == "" {
			return nil, fmt.Errorf("rule %d: phrase is empty", i+1)
		}
	}

	if f.Extend {
		return append(DefaultRules(), f.Rules...), nil
	}
	if len(f.Rules) == 0 {
		return nil, ErrEmptyFile
	}
	return f.Rules, nil
}

// Marshal encodes rules in the on-disk format.
func Marshal(rules []Rule) ([]byte, error) {
	data, err := yaml.Marshal(File{Rules: rules})
	if err != nil {
		return nil, fmt.Errorf("unable to encode lexicon: %w", err)
	}
	return data, nil
}
