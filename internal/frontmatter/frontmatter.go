// Package frontmatter splits markdown documents that open with a YAML block
// fenced by "---" lines and decodes that block.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissing indicates the document did not start with a YAML fence.
	ErrMissing = errors.New("frontmatter: missing")
	// ErrMalformed indicates the opening fence was never closed.
	ErrMalformed = errors.New("frontmatter: unterminated block")
)

const fence = "---"

// Split separates the YAML block from the body. The block ends at the first
// line starting with "---" after the opening fence; the body is everything
// after the newline that follows it, untrimmed.
func Split(content []byte) (meta []byte, body []byte, err error) {
	normalized := normalizeNewlines(content)
	if !bytes.HasPrefix(normalized, []byte(fence+"\n")) {
		return nil, nil, ErrMissing
	}

	// Search from the opening fence's newline so an empty block closes too.
	rest := normalized[len(fence):]
	end := bytes.Index(rest, []byte("\n"+fence))
	if end < 0 {
		return nil, nil, ErrMalformed
	}
	meta = rest[:end]
	if len(meta) > 0 {
		meta = meta[1:]
	}

	after := rest[end+1+len(fence):]
	if nl := bytes.IndexByte(after, '\n'); nl >= 0 {
		body = after[nl+1:]
	}
	return meta, body, nil
}

// Parse decodes the YAML block into out and returns the body with
// surrounding whitespace removed.
func Parse(content []byte, out any) (string, error) {
	meta, body, err := Split(content)
	if err != nil {
		return "", err
	}
	if err := yaml.Unmarshal(meta, out); err != nil {
		return "", fmt.Errorf("frontmatter: parse: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// Keys returns the top-level keys declared in the YAML block, in document
// order. A document whose block is empty or not a mapping has no keys.
func Keys(content []byte) ([]string, error) {
	meta, _, err := Split(content)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(meta, &doc); err != nil {
		return nil, fmt.Errorf("frontmatter: parse: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, nil
	}
	mapping := doc.Content[0]
	keys := make([]string, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keys = append(keys, mapping.Content[i].Value)
	}
	return keys, nil
}

// Render encodes meta between fences followed by a blank line and body.
func Render(meta any, body string) ([]byte, error) {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("frontmatter: encode: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString(fence + "\n")
	buf.Write(bytes.TrimRight(data, "\n"))
	buf.WriteString("\n" + fence + "\n\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

func normalizeNewlines(content []byte) []byte {
	return bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
}
