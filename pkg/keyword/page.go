package keyword

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/apamidi800/rank-export/pkg/xmltree"
)

var (
	// ErrMalformedPage indicates a non-empty body that is not well-formed XML.
	ErrMalformedPage = errors.New("malformed page")

	// ErrInvalidRecord indicates a keyword entry that is not an element with fields.
	ErrInvalidRecord = errors.New("invalid keyword record")
)

// RecordPath locates the keyword entries inside a decoded page.
var RecordPath = []string{"keywords", "keyword"}

// PageResult is either a list of records or empty.
// entries counts every keyword entry on the page, empty ones included.
type PageResult struct {
	records []Record
	entries int
}

// Empty returns a page result without records.
func Empty() PageResult {
	return PageResult{}
}

// Records returns a page result holding records.
func Records(records []Record) PageResult {
	return PageResult{records: records, entries: len(records)}
}

// IsEmpty reports whether the page carried no records.
func (p PageResult) IsEmpty() bool {
	return len(p.records) == 0
}

// Len returns the number of records on the page.
func (p PageResult) Len() int {
	return len(p.records)
}

// Entries returns the number of keyword entries on the page, including
// empty ones that produced no record. A page is the last page only when
// Entries is zero.
func (p PageResult) Entries() int {
	return p.entries
}

// Records returns the page's records in document order.
func (p PageResult) Records() []Record {
	return p.records
}

// ToList normalizes a decoded value to a list: a single element becomes a
// one-element list, a list is returned as is, nil becomes an empty list.
func ToList(v any) []any {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		return val
	default:
		return []any{val}
	}
}

// ParsePage decodes one page body.
//
// An empty body and a document without keywords.keyword are Empty.
// A body that is not XML fails with ErrMalformedPage, and a keyword entry
// holding only text fails with ErrInvalidRecord. Empty <keyword/> entries
// yield no record but still count towards Entries.
func ParsePage(body []byte) (PageResult, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Empty(), nil
	}

	tree, err := xmltree.Decode(body)
	if err != nil {
		return Empty(), fmt.Errorf("%w: %v", ErrMalformedPage, err)
	}

	raw, ok := xmltree.Lookup(tree, RecordPath...)
	if !ok {
		return Empty(), nil
	}

	items := ToList(raw)
	records := make([]Record, 0, len(items))
	for i, item := range items {
		switch val := item.(type) {
		case nil:
			// <keyword/> carries no data
			continue
		case map[string]any:
			records = append(records, Record(val))
		default:
			return Empty(), fmt.Errorf("%w: entry %d is %T", ErrInvalidRecord, i, item)
		}
	}

	result := Records(records)
	result.entries = len(items)
	return result, nil
}
