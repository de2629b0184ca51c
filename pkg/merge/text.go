package merge

import "bytes"

// textStrategy concatenates fragments with a separator between them
type textStrategy struct {
	separator []byte
}

func (textStrategy) Name() string { return FormatText }

func (s textStrategy) Merge(inputs []Input) ([]byte, error) {
	parts := make([][]byte, len(inputs))
	for i, in := range inputs {
		parts[i] = in.Content
	}
	return bytes.Join(parts, s.separator), nil
}
