// Package xmltree builds an in-memory element tree from an XML document.
//
// The tree keeps exactly what the TDM navigator needs: namespace-resolved
// element names, attributes, the character data directly under each element,
// and document order. Comments, processing instructions and directives are
// dropped.
//
// A parsed tree is immutable by convention and safe for concurrent reads.
package xmltree

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/arloliu/tdm/errs"
)

// CharsetReader converts a non-UTF-8 document into UTF-8, as in xml.Decoder.
type CharsetReader func(charset string, input io.Reader) (io.Reader, error)

// Attr is a namespace-resolved attribute.
type Attr struct {
	Space string
	Name  string
	Value string
}

// Element is a node of the parsed tree.
type Element struct {
	Space    string // namespace URI, empty when unqualified
	Name     string // local name
	Attrs    []Attr
	Text     string // character data directly under the element, untrimmed
	Children []*Element
	Parent   *Element
}

// Parse reads a complete XML document from r and returns its root element.
//
// Parameters:
//   - r: Document source
//   - charsetReader: Converter for documents whose prolog declares a non-UTF-8
//     encoding; nil rejects such documents
//
// Returns:
//   - *Element: Root element
//   - error: errs.ErrMalformedDocument wrapping the syntax error, or a read error
func Parse(r io.Reader, charsetReader CharsetReader) (*Element, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var (
		root  *Element
		cur   *Element
		texts = map[*Element]*strings.Builder{}
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var syntaxErr *xml.SyntaxError
			if errors.As(err, &syntaxErr) {
				return nil, fmt.Errorf("%w: %w", errs.ErrMalformedDocument, err)
			}

			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{
				Space:  t.Name.Space,
				Name:   t.Name.Local,
				Parent: cur,
			}
			if len(t.Attr) > 0 {
				el.Attrs = make([]Attr, 0, len(t.Attr))
				for _, a := range t.Attr {
					el.Attrs = append(el.Attrs, Attr{Space: a.Name.Space, Name: a.Name.Local, Value: a.Value})
				}
			}

			if cur == nil {
				if root != nil {
					return nil, fmt.Errorf("second root element <%s>: %w", el.Name, errs.ErrMalformedDocument)
				}
				root = el
			} else {
				cur.Children = append(cur.Children, el)
			}
			cur = el

		case xml.EndElement:
			if sb, ok := texts[cur]; ok {
				cur.Text = sb.String()
				delete(texts, cur)
			}
			cur = cur.Parent

		case xml.CharData:
			if cur == nil {
				continue
			}
			sb, ok := texts[cur]
			if !ok {
				sb = &strings.Builder{}
				texts[cur] = sb
			}
			sb.Write(t)
		}
	}

	if root == nil {
		return nil, fmt.Errorf("no root element: %w", errs.ErrMalformedDocument)
	}

	return root, nil
}

// LookupAttr returns the value of the first attribute with the given local name.
func (e *Element) LookupAttr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}

	return "", false
}

// Attr returns the value of the attribute with the given local name, or "".
func (e *Element) Attr(name string) string {
	v, _ := e.LookupAttr(name)
	return v
}

// ID returns the id attribute.
func (e *Element) ID() string {
	return e.Attr("id")
}

// Child returns the first child with the given local name, or nil.
func (e *Element) Child(name string) *Element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}

	return nil
}

// ChildrenNamed returns every child with the given local name, in document order.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}

	return out
}

// ChildText returns the trimmed text of the first child with the given local name.
// A missing child and a blank child both yield "".
func (e *Element) ChildText(name string) string {
	c := e.Child(name)
	if c == nil {
		return ""
	}

	return strings.TrimSpace(c.Text)
}

// Find descends through first children matching each name in path.
func (e *Element) Find(path ...string) *Element {
	cur := e
	for _, name := range path {
		cur = cur.Child(name)
		if cur == nil {
			return nil
		}
	}

	return cur
}

// Walk visits e and its descendants in document order. Returning false from fn
// skips the subtree below the visited element.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		c.Walk(fn)
	}
}
