package normalization

import (
	"strings"

	"currency-crisis-lab/internal/domain"
)

// Canonical column names of the price table.
const (
	ColOpen          = "open_price"
	ColLow           = "low_price"
	ColHigh          = "high_price"
	ColClose         = "close_price"
	ColChangeAmount  = "change_amount"
	ColChangePercent = "change_percent"
	ColDateGregorian = "date_gregorian"
	ColDatePersian   = "date_persian"
)

// requiredColumns must be present in every price table.
var requiredColumns = []string{ColOpen, ColHigh, ColLow, ColClose, ColDateGregorian}

// columnAliases maps lowercase header spellings to canonical names.
var columnAliases = map[string]string{
	"open_price":     ColOpen,
	"open price":     ColOpen,
	"open":           ColOpen,
	"low_price":      ColLow,
	"low price":      ColLow,
	"low":            ColLow,
	"high_price":     ColHigh,
	"high price":     ColHigh,
	"high":           ColHigh,
	"close_price":    ColClose,
	"close price":    ColClose,
	"close":          ColClose,
	"change_amount":  ColChangeAmount,
	"change amount":  ColChangeAmount,
	"change_percent": ColChangePercent,
	"change percent": ColChangePercent,
	"date_gregorian": ColDateGregorian,
	"gregorian date": ColDateGregorian,
	"date":           ColDateGregorian,
	"date_persian":   ColDatePersian,
	"persian date":   ColDatePersian,
}

// columnIndex maps canonical column name to record position.
type columnIndex map[string]int

// resolveColumns maps a raw header to canonical columns.
// Returns SchemaError listing every required column that is absent.
func resolveColumns(table *domain.RawTable) (columnIndex, error) {
	idx := make(columnIndex, len(table.Header))
	for i, h := range table.Header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		canonical, ok := columnAliases[name]
		if !ok {
			continue
		}
		// First occurrence wins when a header repeats.
		if _, seen := idx[canonical]; !seen {
			idx[canonical] = i
		}
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.SchemaError{Table: table.Name, Missing: missing}
	}
	return idx, nil
}

// field returns the raw value of col in record, or "" when absent.
func (c columnIndex) field(record []string, col string) string {
	i, ok := c[col]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}
