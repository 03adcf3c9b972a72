package model

import "time"

// ArchivedReceipt 本地存档的投票回执
type ArchivedReceipt struct {
	ID         uint       `json:"id"`
	PollID     string     `json:"poll_id"`
	PollTitle  string     `json:"poll_title,omitempty"`
	Receipt    string     `json:"receipt"`
	Valid      *bool      `json:"valid,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
