package models

import "time"

// Case is the read-side view of a legal case the automation engine needs.
// Full case management lives in its own service.
type Case struct {
	ID         int64     `json:"id"`
	Number     string    `json:"number"`
	Title      string    `json:"title"`
	CaseType   string    `json:"case_type"` // personal_injury|medical_malpractice|contract|...
	Status     string    `json:"status"`
	ClientName string    `json:"client_name"`
	OpenedAt   time.Time `json:"opened_at"`
}
