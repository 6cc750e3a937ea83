package models

import "time"

type ActivityType string

const (
	ActivityReport       ActivityType = "report"
	ActivityConfirmation ActivityType = "confirmation"
	ActivityStatusChange ActivityType = "status_change"
	ActivityDeletion     ActivityType = "deletion"
)

// ActivityEvent is one row of the relational activity ledger.
type ActivityEvent struct {
	UserID       string       `json:"userId,omitempty"`
	OccurrenceID string       `json:"occurrenceId"`
	Type         ActivityType `json:"type"`
	Points       int          `json:"points"`
	CreatedAt    time.Time    `json:"createdAt"`
}

type DailyActivity struct {
	Day           string `json:"day"`
	Reports       int64  `json:"reports"`
	Confirmations int64  `json:"confirmations"`
	StatusChanges int64  `json:"statusChanges"`
}

type Contributor struct {
	UserID string `json:"userId"`
	Events int64  `json:"events"`
	Points int64  `json:"points"`
}

type Insights struct {
	Days            int             `json:"days"`
	Daily           []DailyActivity `json:"daily"`
	TopContributors []Contributor   `json:"topContributors"`
}
