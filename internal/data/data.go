// Package data loads and prepares the values substituted into templates.
//
// Values are handled in their JSON shape: map[string]any, []any,
// json.Number, string, bool and nil. Normalize converts any serializable Go
// value to that shape so that struct tags are honored and numbers keep the
// exact text they serialize to.
package data

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Normalize converts v to its JSON shape.
func Normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("serializing data: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding data: %w", err)
	}
	return out, nil
}

// Load reads a YAML or JSON data file. The path "-" reads standard input.
// An empty file yields an empty map.
func Load(path string) (map[string]any, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading data file %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes YAML (and therefore JSON) into a map. Timestamps keep the
// text they were written as and mapping keys of any type become strings.
func Parse(raw []byte) (map[string]any, error) {
	out := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing data: %w", err)
	}
	if len(doc.Content) == 0 {
		return out, nil
	}
	keepTimestampText(&doc)
	if err := doc.Decode(&out); err != nil {
		return nil, fmt.Errorf("parsing data: %w", err)
	}
	for k, v := range out {
		out[k] = stringKeys(v)
	}
	return out, nil
}

// keepTimestampText retags implicit timestamps as strings so they decode
// to their source text instead of time.Time.
func keepTimestampText(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!timestamp" {
		n.Tag = "!!str"
	}
	for _, c := range n.Content {
		keepTimestampText(c)
	}
}

// stringKeys converts map[any]any, which YAML produces for non-string
// keys, to map[string]any.
func stringKeys(v any) any {
	switch v := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = stringKeys(item)
		}
		return out
	case map[string]any:
		for k, item := range v {
			v[k] = stringKeys(item)
		}
		return v
	case []any:
		for i, item := range v {
			v[i] = stringKeys(item)
		}
		return v
	default:
		return v
	}
}

// Set assigns value at a dotted key path, creating intermediate maps.
// A non-map value in the way is replaced.
func Set(data map[string]any, key string, value any) error {
	if key == "" {
		return errors.New("empty key")
	}

	parts := strings.Split(key, ".")
	current := data
	for _, part := range parts[:len(parts)-1] {
		if part == "" {
			return fmt.Errorf("invalid key %q", key)
		}
		next, ok := current[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}

	last := parts[len(parts)-1]
	if last == "" {
		return fmt.Errorf("invalid key %q", key)
	}
	current[last] = value
	return nil
}

// Clone returns a deep copy of m. Nested maps and lists are copied, other
// values are shared.
func Clone(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return cloneValue(m).(map[string]any)
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Merge applies every key=value override to data in key order.
func Merge(data map[string]any, overrides map[string]string) error {
	for _, key := range slices.Sorted(maps.Keys(overrides)) {
		if err := Set(data, key, overrides[key]); err != nil {
			return err
		}
	}
	return nil
}
