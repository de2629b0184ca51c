package merge

import (
	"encoding/json"

	"github.com/pelletier/go-toml/v2"
)

// tomlStrategy folds TOML fragments through their JSON form
type tomlStrategy struct{}

func (tomlStrategy) Name() string { return FormatTOML }

func (tomlStrategy) Merge(inputs []Input) ([]byte, error) {
	doc, err := foldJSON(inputs, tomlToJSON)
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

	table, ok := toNative(v, float64Value).(map[string]interface{})
	if !ok {
		last := inputs[len(inputs)-1]
		return nil, mergeError(last, "merged TOML document is not a table", nil)
	}

	return toml.Marshal(table)
}

func tomlToJSON(in Input) ([]byte, error) {
	var v map[string]interface{}
	if err := toml.Unmarshal(in.Content, &v); err != nil {
		return nil, mergeError(in, "invalid TOML", err)
	}
	if len(v) == 0 {
		return nil, nil
	}

	data, err := json.Marshal(keepFloats(v))
	if err != nil {
		return nil, mergeError(in, "cannot convert TOML to JSON", err)
	}
	return data, nil
}
