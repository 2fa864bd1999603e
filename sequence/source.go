package sequence

import (
	"github.com/arloliu/tdm/schema"
	"github.com/arloliu/tdm/tdx"
)

type documentSource struct {
	*schema.Document
	mapping *tdx.Mapping
}

// NewSource binds a document to the TDX mapping its blocks live in.
func NewSource(doc *schema.Document, mapping *tdx.Mapping) Source {
	return documentSource{Document: doc, mapping: mapping}
}

func (s documentSource) View(block schema.BlockRef) (tdx.View, error) {
	return s.mapping.View(block, s.ByteOrder())
}
