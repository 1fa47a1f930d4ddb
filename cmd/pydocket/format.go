package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatYAML  OutputFormat = "yaml"
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// writeFormatted encodes v as YAML or JSON.
func writeFormatted(w io.Writer, v any, format OutputFormat) error {
	out, err := formatResponse(v, format)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

func formatResponse(v any, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(v)
	case FormatYAML:
		return formatYAML(v)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data) + "\n", nil
}

func formatYAML(v any) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
