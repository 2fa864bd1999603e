// Package schema navigates the fixed TDM schema of a parsed document.
//
// A TDM document is a loosely typed graph: the root lists channel groups, a
// group lists channels, a channel points at a local column, a local column at
// its value sequence, optional flags sequence and submatrix, and an external
// value sequence at a binary block of the TDX file. Every edge is an id("...")
// reference resolved through a usi.Index.
//
// Load resolves the channel-group list once. Channels, local columns,
// sequences and blocks are resolved on demand, so an unresolvable reference
// fails only the query that touches it.
//
//	doc, err := schema.Load(root)
//	if err != nil {
//	    return err
//	}
//	ch, err := doc.Channel(schema.ByName("Measurement"), schema.ByIndex(-1))
//
// A Document is immutable after Load and safe for concurrent use.
package schema

import (
	"fmt"
	"strings"

	"github.com/arloliu/tdm/endian"
	"github.com/arloliu/tdm/errs"
	"github.com/arloliu/tdm/usi"
	"github.com/arloliu/tdm/xmltree"
)

// Namespace is the XML namespace of the USI elements of a TDM document.
const Namespace = "http://www.ni.com/Schemas/USI/1_0"

// Document is the navigable view of one TDM document.
type Document struct {
	root     *xmltree.Element
	index    *usi.Index
	engine   endian.EndianEngine
	tdxURL   string
	exporter string
	title    string
	groups   []*ChannelGroup
}

// Load validates the document header and builds the channel-group list.
//
// Parameters:
//   - root: Root element of the parsed TDM document
//
// Returns:
//   - *Document: Navigable document
//   - error: errs.ErrMalformedDocument for a foreign root element or missing tdm_root,
//     errs.ErrMalformedHeader for a missing file header or unknown byte order,
//     errs.ErrReferenceNotFound for an unresolvable channel group reference
func Load(root *xmltree.Element) (*Document, error) {
	if root == nil || root.Name != "tdm" || (root.Space != Namespace && root.Space != "") {
		return nil, fmt.Errorf("root element is not a USI tdm element: %w", errs.ErrMalformedDocument)
	}

	doc := &Document{
		root:  root,
		index: usi.NewIndex(root),
	}
	if e := root.Find("documentation", "exporter"); e != nil {
		doc.exporter = strings.TrimSpace(e.Text)
	}

	if err := doc.loadHeader(); err != nil {
		return nil, err
	}
	if err := doc.loadGroups(); err != nil {
		return nil, err
	}

	return doc, nil
}

func (doc *Document) loadHeader() error {
	file := doc.root.Find("include", "file")
	if file == nil {
		return fmt.Errorf("missing include/file element: %w", errs.ErrMalformedHeader)
	}

	engine, err := endian.ParseByteOrder(file.Attr("byteOrder"))
	if err != nil {
		return err
	}

	doc.engine = engine
	doc.tdxURL = file.Attr("url")

	return nil
}

func (doc *Document) loadGroups() error {
	roots := doc.index.Elements(usi.KindRoot)
	if len(roots) == 0 {
		return fmt.Errorf("missing tdm_root element: %w", errs.ErrMalformedDocument)
	}
	rootElem := roots[0]
	doc.title = rootElem.ChildText("title")

	elems, err := doc.index.ResolveAll(rootElem.ChildText("channelgroups"), usi.KindChannelGroup)
	if err != nil {
		return err
	}

	doc.groups = make([]*ChannelGroup, len(elems))
	for i, e := range elems {
		doc.groups[i] = &ChannelGroup{
			Index:       i,
			ID:          e.ID(),
			Name:        e.ChildText("name"),
			Description: e.ChildText("description"),
			channelIDs:  usi.Refs(e.ChildText("channels")),
		}
	}

	return nil
}

// ByteOrder returns the engine for the byte order declared in the file header.
func (doc *Document) ByteOrder() endian.EndianEngine {
	return doc.engine
}

// TDXURL returns the url attribute of the file header.
func (doc *Document) TDXURL() string {
	return doc.tdxURL
}

// Exporter returns the documentation/exporter text, or "".
func (doc *Document) Exporter() string {
	return doc.exporter
}

// Title returns the title of the tdm_root element, or "".
func (doc *Document) Title() string {
	return doc.title
}

// Index returns the identifier index of the document.
func (doc *Document) Index() *usi.Index {
	return doc.index
}

// Groups returns the channel groups in document order.
func (doc *Document) Groups() []*ChannelGroup {
	return doc.groups
}
