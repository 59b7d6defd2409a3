package models

// ShareTokenWithReports is an issued token with minimal metadata for the
// reports it covers. Returned by the owner's listing, regardless of state.
type ShareTokenWithReports struct {
	ShareToken
	Reports []ReportSummary `json:"reports"`
}

// ReceivedShare is an actionable incoming share: a live token addressed to
// the caller's email, with the owner's display info.
type ReceivedShare struct {
	ShareToken
	Reports []ReportSummary `json:"reports"`
	Owner   PublicInfo      `json:"owner"`
}

// ShareTokenDetails is the full redemption view of a token: the token row,
// every linked report with its vitals, and the owner's public info. The
// report slice may be empty if all linked reports were deleted.
type ShareTokenDetails struct {
	ShareToken
	Reports []Report   `json:"reports"`
	Owner   PublicInfo `json:"owner"`
}
