package enums

import "fmt"

// ReportReason maps to the report_reason enum in Postgres.
type ReportReason string

const (
	ReportReasonSpam          ReportReason = "spam"
	ReportReasonFraud         ReportReason = "fraud"
	ReportReasonWrongInfo     ReportReason = "wrong_info"
	ReportReasonDuplicate     ReportReason = "duplicate"
	ReportReasonInappropriate ReportReason = "inappropriate"
	ReportReasonOther         ReportReason = "other"
)

var validReportReasons = []ReportReason{
	ReportReasonSpam,
	ReportReasonFraud,
	ReportReasonWrongInfo,
	ReportReasonDuplicate,
	ReportReasonInappropriate,
	ReportReasonOther,
}

// IsValid reports whether the reason is recognized.
func (r ReportReason) IsValid() bool {
	for _, candidate := range validReportReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReportReason converts a raw string into a ReportReason.
func ParseReportReason(value string) (ReportReason, error) {
	for _, candidate := range validReportReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report reason %q", value)
}

// ReportStatus maps to the report_status enum in Postgres.
type ReportStatus string

const (
	ReportStatusOpen      ReportStatus = "open"
	ReportStatusResolved  ReportStatus = "resolved"
	ReportStatusDismissed ReportStatus = "dismissed"
)

var validReportStatuses = []ReportStatus{
	ReportStatusOpen,
	ReportStatusResolved,
	ReportStatusDismissed,
}

// IsValid reports whether the status is recognized.
func (s ReportStatus) IsValid() bool {
	for _, candidate := range validReportStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further review is expected.
func (s ReportStatus) IsTerminal() bool {
	return s == ReportStatusResolved || s == ReportStatusDismissed
}

// ParseReportStatus converts a raw string into a ReportStatus.
func ParseReportStatus(value string) (ReportStatus, error) {
	for _, candidate := range validReportStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid report status %q", value)
}
