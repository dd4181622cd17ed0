package dataset

import "strings"

// DefaultGatewayColumn is the platform column holding the gateway name.
const DefaultGatewayColumn = "gateway"

// FilterStatus describes the outcome of FilterByGateway.
type FilterStatus int

const (
	// FilterOK means at least one row belongs to the gateway.
	FilterOK FilterStatus = iota
	// FilterMissingColumn means the dataset has no gateway column.
	FilterMissingColumn
	// FilterEmpty means no row belongs to the gateway.
	FilterEmpty
)

// String returns the string representation of FilterStatus
func (s FilterStatus) String() string {
	switch s {
	case FilterOK:
		return "ok"
	case FilterMissingColumn:
		return "missing_gateway_column"
	case FilterEmpty:
		return "empty_filter_result"
	default:
		return "unknown"
	}
}

// FilterByGateway keeps the rows whose gateway column equals gatewayName,
// ignoring case. An empty column name means DefaultGatewayColumn. The
// returned dataset is nil unless the status is FilterOK.
func FilterByGateway(platform *Dataset, gatewayName, column string) (*Dataset, FilterStatus) {
	if column == "" {
		column = DefaultGatewayColumn
	}
	col, ok := platform.ColumnIndex(column)
	if !ok {
		return nil, FilterMissingColumn
	}

	filtered := platform.Filter(func(r Row) bool {
		return strings.EqualFold(FormatCell(r.Values[col]), gatewayName)
	})
	if filtered.IsEmpty() {
		return nil, FilterEmpty
	}
	return filtered, FilterOK
}
