package decompose

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// splitJSON names array elements "Item N" and object members by key, in
// document order. Invalid JSON falls back to scanning top-level {...}
// blocks.
func splitJSON(content string) []Instance {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil
	}
	if !json.Valid([]byte(trimmed)) {
		return scanBlocks(content)
	}

	dec := json.NewDecoder(strings.NewReader(content))
	tok, err := dec.Token()
	if err != nil {
		return nil
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}

	var out []Instance
	for dec.More() {
		name := fmt.Sprintf("Item %d", len(out)+1)
		kind := KindItem
		if delim == '{' {
			key, err := dec.Token()
			if err != nil {
				return nil
			}
			name, kind = fmt.Sprint(key), KindKey
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil
		}
		end := int(dec.InputOffset())
		start := end - len(bytes.TrimSpace(raw))
		out = append(out, part(content, name, kind, start, end))
	}
	return out
}

// scanBlocks finds balanced top-level {...} blocks, string aware.
func scanBlocks(content string) []Instance {
	var out []Instance
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '"':
			i = skipQuoted(content, i, '"')
		case '{':
			end := matchBrace(content, i)
			out = append(out, part(content, fmt.Sprintf("Block %d", len(out)+1), KindBlock, i, end))
			i = end - 1
		}
	}
	return out
}
