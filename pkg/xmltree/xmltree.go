// Package xmltree decodes XML documents into generic trees of maps, slices and strings.
//
// The mapping follows the common dict-style convention:
//
//   - an element becomes a map keyed by the local names of its children
//   - repeated sibling elements become a []any in document order
//   - attributes are stored under "@name"
//   - text of an element that also has children or attributes is stored under "#text"
//   - a text-only element becomes a string, an empty element becomes nil
//
// Documents declaring a non-UTF-8 encoding are transcoded before decoding.
package xmltree

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

const (
	// AttrPrefix marks attribute keys.
	AttrPrefix = "@"

	// TextKey holds the text content of mixed elements.
	TextKey = "#text"
)

// ErrNoRoot is returned when the document contains no root element.
var ErrNoRoot = errors.New("xmltree: no root element")

// ErrTrailingData is returned when content follows the root element.
var ErrTrailingData = errors.New("trailing data")

// Decode parses data and returns a single-entry map of root name to root value.
func Decode(data []byte) (map[string]any, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.CharsetReader = charset.NewReaderLabel

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, ErrNoRoot
		}
		if err != nil {
			return nil, fmt.Errorf("xmltree: %w", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		value, err := decodeElement(dec, start)
		if err != nil {
			return nil, err
		}
		if err := checkTrailing(dec); err != nil {
			return nil, err
		}
		return map[string]any{start.Name.Local: value}, nil
	}
}

// checkTrailing consumes the rest of the document. Only whitespace,
// comments and processing instructions may follow the root element.
func checkTrailing(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("xmltree: after root: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("xmltree: %w: element %q after root", ErrTrailingData, t.Name.Local)
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return fmt.Errorf("xmltree: %w: text after root", ErrTrailingData)
			}
		}
	}
}

func decodeElement(dec *xml.Decoder, start xml.StartElement) (any, error) {
	node := make(map[string]any)
	for _, attr := range start.Attr {
		if attr.Name.Space == "xmlns" || attr.Name.Local == "xmlns" {
			continue
		}
		node[AttrPrefix+attr.Name.Local] = attr.Value
	}

	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("xmltree: element %q: %w", start.Name.Local, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(dec, t)
			if err != nil {
				return nil, err
			}
			appendChild(node, t.Name.Local, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			s := strings.TrimSpace(text.String())
			if len(node) == 0 {
				if s == "" {
					return nil, nil
				}
				return s, nil
			}
			if s != "" {
				node[TextKey] = s
			}
			return node, nil
		}
	}
}

// appendChild stores v under key, promoting the entry to a list on repeats.
// Element values are never []any themselves, so an existing list is always
// the result of an earlier promotion.
func appendChild(node map[string]any, key string, v any) {
	existing, ok := node[key]
	if !ok {
		node[key] = v
		return
	}
	if list, ok := existing.([]any); ok {
		node[key] = append(list, v)
		return
	}
	node[key] = []any{existing, v}
}

// Lookup walks path through nested maps and reports whether every key exists.
// It never indexes into a non-map value.
func Lookup(tree any, path ...string) (any, bool) {
	current := tree
	for _, key := range path {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
