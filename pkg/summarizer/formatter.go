// Package summarizer builds probe reports for indexed videos.
package summarizer

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Formatter defines the interface for formatting a Summary.
type Formatter interface {
	// Format converts a Summary to a formatted string.
	Format(summary *Summary) string
}

// FormatFunc is a function adapter for the Formatter interface.
type FormatFunc func(summary *Summary) string

// Format implements the Formatter interface.
func (f FormatFunc) Format(summary *Summary) string {
	return f(summary)
}

// YAMLFormatter renders a summary as YAML for scripts. Durations are
// written in time.Duration notation.
type YAMLFormatter struct{}

func (YAMLFormatter) Format(summary *Summary) string {
	data, err := yaml.Marshal(summary)
	if err != nil {
		return ""
	}
	return string(data)
}

// JSONFormatter renders a summary as indented JSON. Durations are
// nanoseconds.
type JSONFormatter struct{}

func (JSONFormatter) Format(summary *Summary) string {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return ""
	}
	return string(data) + "\n"
}

// ForPath picks a formatter from the extension of path: YAML for .yaml
// and .yml, JSON for .json, and fallback for anything else.
func ForPath(path string, fallback Formatter) Formatter {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLFormatter{}
	case ".json":
		return JSONFormatter{}
	default:
		return fallback
	}
}
