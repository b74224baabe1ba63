package declarative

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// TreeLoader loads and stores AgentNode trees as YAML or JSON files.
type TreeLoader interface {
	// LoadFile reads a file and parses it into an AgentNode tree.
	// Format is auto-detected from the file extension (.yaml, .yml, .json).
	LoadFile(path string) (*AgentNode, error)

	// LoadBytes parses raw bytes into an AgentNode tree.
	// format must be "yaml" or "json".
	LoadBytes(data []byte, format string) (*AgentNode, error)

	// Marshal renders a tree in the given format.
	Marshal(node *AgentNode, format string) ([]byte, error)
}

// FileTreeLoader implements TreeLoader for YAML and JSON formats.
type FileTreeLoader struct{}

// NewTreeLoader creates a new FileTreeLoader.
func NewTreeLoader() *FileTreeLoader {
	return &FileTreeLoader{}
}

// LoadFile reads a file and parses it based on extension.
func (l *FileTreeLoader) LoadFile(path string) (*AgentNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent tree file: %w", err)
	}

	format := DetectFormat(path)
	if format == "" {
		return nil, fmt.Errorf("unsupported file extension: %s", filepath.Ext(path))
	}

	return l.LoadBytes(data, format)
}

// LoadBytes parses raw bytes in the given format ("yaml" or "json").
func (l *FileTreeLoader) LoadBytes(data []byte, format string) (*AgentNode, error) {
	var node AgentNode

	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q, use \"yaml\" or \"json\"", format)
	}

	return &node, nil
}

// Marshal renders node as indented JSON or as YAML.
func (l *FileTreeLoader) Marshal(node *AgentNode, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		return yaml.Marshal(node)
	case "json":
		return json.MarshalIndent(node, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported format %q, use \"yaml\" or \"json\"", format)
	}
}

// DetectFormat returns "yaml" or "json" based on file extension, or "" if unknown.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		return ""
	}
}
