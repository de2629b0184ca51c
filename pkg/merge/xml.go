package merge

import (
	"bytes"

	"github.com/beevik/etree"
)

// xmlStrategy keeps the first document and appends the root children of
// every later fragment to its root element
type xmlStrategy struct {
	indent int
}

func (xmlStrategy) Name() string { return FormatXML }

func (s xmlStrategy) Merge(inputs []Input) ([]byte, error) {
	var base *etree.Document
	for _, in := range inputs {
		if len(bytes.TrimSpace(in.Content)) == 0 {
			continue
		}

		doc := etree.NewDocument()
		if err := doc.ReadFromBytes(in.Content); err != nil {
			return nil, mergeError(in, "invalid XML", err)
		}
		root := doc.Root()
		if root == nil {
			return nil, mergeError(in, "XML fragment has no root element", nil)
		}

		if base == nil {
			base = doc
			continue
		}

		baseRoot := base.Root()
		if root.Space != baseRoot.Space || root.Tag != baseRoot.Tag {
			return nil, mergeError(in, "root element <"+root.FullTag()+"> does not match <"+baseRoot.FullTag()+">", nil)
		}
		for _, child := range root.ChildElements() {
			baseRoot.AddChild(child.Copy())
		}
	}

	if base == nil {
		return []byte{}, nil
	}

	base.Indent(s.indent)
	return base.WriteToBytes()
}
