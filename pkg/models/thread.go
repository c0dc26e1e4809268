package models

type Thread struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	// Created timestamp (ns)
	CreatedTS int64 `json:"created_ts,omitempty"`
	// Updated timestamp (ns) - last time the transcript changed
	UpdatedTS int64 `json:"updated_ts,omitempty"`
	// LastOrdinal is the highest ordinal assigned in this thread.
	// Zero means no messages have been appended yet.
	LastOrdinal uint64 `json:"last_ordinal"`
}
