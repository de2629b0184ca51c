package merge

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"
	"github.com/tidwall/jsonc"
)

// jsonStrategy folds JSONC fragments with RFC 7396 merge patch
type jsonStrategy struct {
	indent int
}

func (jsonStrategy) Name() string { return FormatJSON }

func (s jsonStrategy) Merge(inputs []Input) ([]byte, error) {
	doc, err := foldJSON(inputs, jsoncToJSON)
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
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", strings.Repeat(" ", s.indent))
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// jsoncToJSON strips comments and trailing commas. A fragment holding only
// comments yields nil and is skipped.
func jsoncToJSON(in Input) ([]byte, error) {
	stripped := jsonc.ToJSON(in.Content)
	if len(bytes.TrimSpace(stripped)) == 0 {
		return nil, nil
	}
	if !json.Valid(stripped) {
		return nil, mergeError(in, "invalid JSON", nil)
	}
	return stripped, nil
}

// foldJSON converts each non-blank fragment to JSON and applies it as a
// merge patch over the previous result. A nil result means there was
// nothing to merge.
func foldJSON(inputs []Input, toJSON func(Input) ([]byte, error)) ([]byte, error) {
	var doc []byte
	for _, in := range inputs {
		if len(bytes.TrimSpace(in.Content)) == 0 {
			continue
		}

		patch, err := toJSON(in)
		if err != nil {
			return nil, err
		}
		if patch == nil {
			continue
		}

		// A non-object patch replaces the document. An object patch over a
		// non-object document applies to an empty object.
		if !isObject(patch) {
			doc = patch
			continue
		}
		base := doc
		if !isObject(base) {
			base = []byte("{}")
		}

		doc, err = jsonpatch.MergePatch(base, patch)
		if err != nil {
			return nil, mergeError(in, "cannot apply merge patch", err)
		}
	}
	return doc, nil
}

func isObject(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// decodeJSON decodes without losing integer precision
func decodeJSON(data []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// keepFloats turns decoded floats into json.Number with a fractional part
// or exponent, so json.Marshal writes 1.0 rather than 1 and the value is
// still a float once merged
func keepFloats(v interface{}) interface{} {
	switch t := v.(type) {
	case float64:
		return floatNumber(t, 64)
	case float32:
		return floatNumber(float64(t), 32)
	case map[string]interface{}:
		for k, child := range t {
			t[k] = keepFloats(child)
		}
		return t
	case []interface{}:
		for i, child := range t {
			t[i] = keepFloats(child)
		}
		return t
	default:
		return v
	}
}

func floatNumber(f float64, bits int) interface{} {
	// json.Marshal rejects these; leave them for it to report
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return f
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !isFloatText(s) {
		s += ".0"
	}
	return json.Number(s)
}

func isFloatText(s string) bool {
	return strings.ContainsAny(s, ".eE")
}

// toNative replaces json.Number with int64, or with whatever float
// returns for numbers written as floats, so YAML and TOML encoders emit
// numbers rather than strings
func toNative(v interface{}, float func(json.Number) interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if isFloatText(t.String()) {
			return float(t)
		}
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]interface{}:
		for k, child := range t {
			t[k] = toNative(child, float)
		}
		return t
	case []interface{}:
		for i, child := range t {
			t[i] = toNative(child, float)
		}
		return t
	default:
		return v
	}
}

// float64Value is the float conversion for encoders that keep the
// fractional part of whole floats on their own
func float64Value(n json.Number) interface{} {
	f, err := n.Float64()
	if err != nil {
		return n.String()
	}
	return f
}
