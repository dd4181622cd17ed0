package reconciler

import (
	"github.com/google/uuid"

	"tracking-reconciliation-service/internal/dataset"
	"tracking-reconciliation-service/internal/models"
	"tracking-reconciliation-service/internal/reporter"
	apperrors "tracking-reconciliation-service/pkg/errors"
)

// Status is the outcome kind of a run.
type Status int

const (
	// StatusOK means the run produced a report.
	StatusOK Status = iota
	// StatusNoData means there was nothing to reconcile. It is not an error.
	StatusNoData
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoData:
		return "no_data"
	default:
		return "unknown"
	}
}

// NoDataReason explains a StatusNoData result.
type NoDataReason int

const (
	NoDataNone NoDataReason = iota
	// NoDataMissingGatewayColumn means the platform data has no gateway column.
	NoDataMissingGatewayColumn
	// NoDataEmptyFilter means no platform row belongs to the gateway.
	NoDataEmptyFilter
	// NoDataNoTrackingColumns means none of the configured tracking columns
	// exist. Only fan-out runs stop for it.
	NoDataNoTrackingColumns
	// NoDataNoPlatformCodes means no tracking code was found in the platform
	// rows. Only fan-out runs stop for it.
	NoDataNoPlatformCodes
)

// String returns the string representation of NoDataReason
func (r NoDataReason) String() string {
	switch r {
	case NoDataNone:
		return ""
	case NoDataMissingGatewayColumn:
		return string(apperrors.CodeMissingGatewayColumn)
	case NoDataEmptyFilter:
		return string(apperrors.CodeEmptyFilterResult)
	case NoDataNoTrackingColumns:
		return "no_tracking_columns"
	case NoDataNoPlatformCodes:
		return "no_platform_codes"
	default:
		return "unknown"
	}
}

// Message returns an operator-facing description of the reason.
func (r NoDataReason) Message(gateway string) string {
	switch r {
	case NoDataMissingGatewayColumn:
		return "the platform file has no gateway column"
	case NoDataEmptyFilter:
		return "no platform records for gateway " + gateway
	case NoDataNoTrackingColumns:
		return "none of the configured tracking columns exist in the platform file"
	case NoDataNoPlatformCodes:
		return "no tracking codes were found in the platform records"
	default:
		return ""
	}
}

// Result holds everything one run produced. Report is nil for no-data runs.
type Result struct {
	RunID        uuid.UUID
	Status       Status
	NoDataReason NoDataReason
	Gateway      string
	Policy       MatchPolicy

	Filtered *dataset.Dataset
	Provider *dataset.Dataset

	PlatformCandidates []models.Candidate
	ProviderCandidates []models.Candidate

	Matches            []models.MatchRecord
	NonMatchesPlatform []models.NonMatchRecord
	NonMatchesProvider []models.NonMatchRecord

	Summary models.Summary
	Report  *reporter.Report
}

// HasData reports whether the run produced a report.
func (r *Result) HasData() bool {
	return r.Status == StatusOK
}
