package bulkimport

import (
	"fmt"
	"strings"
)

// Required logical columns. Header names match case-insensitively after
// trimming so agency exports with cosmetic differences still import.
var requiredColumns = []string{
	"homeownerName",
	"homeownerEmail",
	"homeownerPhone",
	"propertyAddress",
	"propertyType",
}

const postcodeColumn = "postcode"

// Header maps logical column names to field indexes.
type Header struct {
	index map[string]int
}

// ParseHeader builds the column mapping from the first CSV row and returns the
// required columns that are absent. A non-empty missing list aborts the whole
// batch before any data row runs.
func ParseHeader(row []string) (Header, []string) {
	index := make(map[string]int, len(row))
	for i, name := range row {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := index[strings.ToLower(name)]; !ok {
			missing = append(missing, name)
		}
	}
	return Header{index: index}, missing
}

func (h Header) field(row []string, name string) string {
	i, ok := h.index[strings.ToLower(name)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Record is one validated data row.
type Record struct {
	HomeownerName   string
	HomeownerEmail  string
	HomeownerPhone  string
	PropertyAddress string
	PropertyType    string
	Postcode        *string
}

// ValidateRow trims every field and rejects the row when any required field is
// empty after trimming. Rejection is row-scoped and never aborts the batch.
func ValidateRow(h Header, row []string) (Record, error) {
	var empty []string
	for _, name := range requiredColumns {
		if h.field(row, name) == "" {
			empty = append(empty, name)
		}
	}
	if len(empty) > 0 {
		return Record{}, fmt.Errorf("missing required value for %s", strings.Join(empty, ", "))
	}

	rec := Record{
		HomeownerName:   h.field(row, "homeownerName"),
		HomeownerEmail:  h.field(row, "homeownerEmail"),
		HomeownerPhone:  h.field(row, "homeownerPhone"),
		PropertyAddress: h.field(row, "propertyAddress"),
		PropertyType:    h.field(row, "propertyType"),
	}
	if code := h.field(row, postcodeColumn); code != "" {
		rec.Postcode = &code
	}
	return rec, nil
}
