// Package search projects published items into compact records and
// serializes them as the single machine-readable artifact of a build.
package search

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/finnkauski/mub/internal/content"
)

// IndexFilename is the fixed artifact path under the output root.
const IndexFilename = "search-index.json"

// ErrProjection indicates an item could not be turned into a search record.
var ErrProjection = errors.New("search: record projection failed")

// Record is the searchable projection of one published item.
type Record struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	Date  string `json:"date"`
	Text  string `json:"text"`
}

// NewRecord projects one item. Title and date are required; text falls back
// to the raw body when the source needed no markdown conversion.
func NewRecord(item *content.Item) (Record, error) {
	if item.Meta.Title == "" {
		return Record{}, fmt.Errorf("%w: %s has no title", ErrProjection, item.Location.SourcePath)
	}
	if item.Meta.Date.IsZero() {
		return Record{}, fmt.Errorf("%w: %s has no date", ErrProjection, item.Location.SourcePath)
	}
	return Record{
		Path:  item.Location.OutputURL,
		Title: item.Meta.Title,
		Date:  item.Meta.DateString(),
		Text:  item.Searchable(),
	}, nil
}

// BuildIndex serializes the published subset of the collection, in
// collection order, as one JSON array. The index is a single atomic
// artifact: any projection failure aborts the whole build rather than
// emitting a partial index.
func BuildIndex(coll *content.Collection) ([]byte, error) {
	records := make([]Record, 0, len(coll.Items))
	for i := range coll.Items {
		item := &coll.Items[i]
		if !item.Meta.Publish {
			continue
		}
		record, err := NewRecord(item)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return json.Marshal(records)
}
