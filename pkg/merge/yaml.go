package merge

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// yamlStrategy folds YAML fragments through their JSON form
type yamlStrategy struct {
	indent int
}

func (yamlStrategy) Name() string { return FormatYAML }

func (s yamlStrategy) Merge(inputs []Input) ([]byte, error) {
	doc, err := foldJSON(inputs, yamlToJSON)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return []byte{}, nil
	}

	v, err := decodeJSON(doc)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if s.indent > 0 {
		enc.SetIndent(s.indent)
	}
	if err := enc.Encode(toNative(v, yamlFloat)); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func yamlToJSON(in Input) ([]byte, error) {
	var v interface{}
	if err := yaml.Unmarshal(in.Content, &v); err != nil {
		return nil, mergeError(in, "invalid YAML", err)
	}
	if v == nil {
		return nil, nil
	}

	data, err := json.Marshal(keepFloats(stringKeys(v)))
	if err != nil {
		return nil, mergeError(in, "cannot convert YAML to JSON", err)
	}
	return data, nil
}

// yamlFloat emits the number text as a plain float scalar. yaml.v3 writes
// a whole float64 without its fractional part, which would read back as
// an integer.
func yamlFloat(n json.Number) interface{} {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: n.String()}
}

// stringKeys converts mappings with non-string keys, which JSON cannot
// represent, into string-keyed maps
func stringKeys(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, child := range t {
			out[fmt.Sprint(k)] = stringKeys(child)
		}
		return out
	case map[string]interface{}:
		for k, child := range t {
			t[k] = stringKeys(child)
		}
		return t
	case []interface{}:
		for i, child := range t {
			t[i] = stringKeys(child)
		}
		return t
	default:
		return v
	}
}
