// Package reporting summarizes the deploy evaluation audit log.
package reporting

import "time"

// Report summarizes deploy evaluations over a time range.
type Report struct {
	GeneratedAt time.Time
	RangeStart  int64 // Unix ms, inclusive
	RangeEnd    int64 // Unix ms, inclusive

	Summary  Summary
	Reasons  []ReasonRow // sorted by count desc, then reason
	TopUsers []UserRow   // sorted by requests desc, then username
}

// Summary contains the headline counts.
type Summary struct {
	Total        int
	Approved     int
	Rejected     int
	Ineligible   int
	ApprovalRate float64 // Approved / Total, 0 when Total is 0
	MeanScore    float64
	MaxScore     int
}

// ReasonRow counts evaluations rejected for one reason.
type ReasonRow struct {
	Reason string
	Count  int
}

// UserRow counts the requests of one username.
type UserRow struct {
	Username string
	Requests int
	Approved int
}
