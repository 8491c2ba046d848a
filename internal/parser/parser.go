// Package parser extracts structured YAML payloads from LLM responses.
// Models are prompted to answer with a fenced ```yaml block; this package
// locates that block, decodes it, and normalizes the `idx # comment`
// reference entries the prompts ask for back into plain integers.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoYAMLBlock is returned when a response carries no fenced yaml block.
var ErrNoYAMLBlock = errors.New("no fenced yaml block in response")

const (
	openFence  = "```yaml"
	closeFence = "```"
)

// ExtractYAMLBlock returns the payload of the first fenced ```yaml block in
// response, trimmed of surrounding whitespace.
func ExtractYAMLBlock(response string) (string, error) {
	start := strings.Index(response, openFence)
	if start < 0 {
		return "", ErrNoYAMLBlock
	}
	body := response[start+len(openFence):]

	end := strings.Index(body, closeFence)
	if end < 0 {
		return "", fmt.Errorf("unterminated yaml block: %w", ErrNoYAMLBlock)
	}
	return strings.TrimSpace(body[:end]), nil
}

// DecodeYAML extracts the fenced yaml block from response and unmarshals it
// into out.
func DecodeYAML(response string, out any) error {
	block, err := ExtractYAMLBlock(response)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal([]byte(block), out); err != nil {
		return fmt.Errorf("decoding yaml block: %w", err)
	}
	return nil
}

// IndexRef is an integer reference that models may express either as a bare
// number or as a string of the form "3 # some comment". Both forms decode to
// the leading integer.
type IndexRef int

// UnmarshalYAML implements yaml.Unmarshaler for IndexRef.
func (r *IndexRef) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("index reference must be a scalar, got %s", kindName(value.Kind))
	}
	n, err := ParseIndexRef(value.Value)
	if err != nil {
		return err
	}
	*r = IndexRef(n)
	return nil
}

// Ints converts a slice of IndexRef to plain ints.
func Ints(refs []IndexRef) []int {
	out := make([]int, len(refs))
	for i, r := range refs {
		out[i] = int(r)
	}
	return out
}

// ParseIndexRef parses a reference entry such as "3", "3 # path/to/file.go",
// or " 3 #comment" into its integer index.
func ParseIndexRef(entry string) (int, error) {
	head := entry
	if i := strings.Index(entry, "#"); i >= 0 {
		head = entry[:i]
	}
	n, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, fmt.Errorf("unparseable index reference %q", entry)
	}
	return n, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
