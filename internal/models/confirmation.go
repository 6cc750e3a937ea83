package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Confirmation is the single record of a citizen vouching for an occurrence.
// UserID is nil for anonymous confirmations.
type Confirmation struct {
	ID                 primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OccurrenceID       primitive.ObjectID  `bson:"occurrence_id" json:"occurrenceId"`
	UserID             *primitive.ObjectID `bson:"user_id,omitempty" json:"userId,omitempty"`
	AnonymousKey       string              `bson:"anonymous_key,omitempty" json:"-"`
	Comment            string              `bson:"comment,omitempty" json:"comment,omitempty"`
	SeverityAssessment Severity            `bson:"severity_assessment" json:"severityAssessment"`
	Location           *GeoPoint           `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt          time.Time           `bson:"created_at" json:"createdAt"`
}

func (c *Confirmation) Anonymous() bool {
	return c.UserID == nil
}

type ConfirmationView struct {
	Confirmation `bson:",inline"`
	User         *UserSummary `json:"user"`
}

type ConfirmationInput struct {
	Comment            string         `json:"comment" validate:"max=200"`
	SeverityAssessment Severity       `json:"severityAssessment" validate:"omitempty,oneof=low medium high"`
	Location           *LocationInput `json:"location"`
}
