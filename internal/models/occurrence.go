package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OccurrenceType string

const (
	TypePothole  OccurrenceType = "pothole"
	TypeLighting OccurrenceType = "lighting"
	TypeTrash    OccurrenceType = "trash"
	TypeSignage  OccurrenceType = "signage"
	TypeOther    OccurrenceType = "other"
)

type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type GeoPoint struct {
	Lat float64 `bson:"lat" json:"lat"`
	Lng float64 `bson:"lng" json:"lng"`
}

// Valid reports whether the point is a real latitude/longitude pair.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

type ImageMeta struct {
	URL          string     `bson:"url" json:"url"`
	PublicID     string     `bson:"public_id" json:"publicId"`
	OriginalName string     `bson:"original_name,omitempty" json:"originalName,omitempty"`
	Width        int        `bson:"width" json:"width"`
	Height       int        `bson:"height" json:"height"`
	TakenAt      *time.Time `bson:"taken_at,omitempty" json:"takenAt,omitempty"`
	Location     *GeoPoint  `bson:"location,omitempty" json:"location,omitempty"`
	UploadedAt   time.Time  `bson:"uploaded_at" json:"uploadedAt"`
}

type Occurrence struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Type              OccurrenceType      `bson:"type" json:"type"`
	Title             string              `bson:"title" json:"title"`
	Description       string              `bson:"description" json:"description"`
	Address           string              `bson:"address" json:"address"`
	Location          GeoPoint            `bson:"location" json:"location"`
	Status            Status              `bson:"status" json:"status"`
	Severity          Severity            `bson:"severity" json:"severity"`
	Priority          Priority            `bson:"priority" json:"priority"`
	ReportedBy        *primitive.ObjectID `bson:"reported_by,omitempty" json:"reportedById,omitempty"`
	ConfirmationCount int                 `bson:"confirmation_count" json:"confirmationCount"`
	Images            []ImageMeta         `bson:"images" json:"images"`
	ResolvedAt        *time.Time          `bson:"resolved_at,omitempty" json:"resolvedAt,omitempty"`
	CreatedAt         time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updated_at" json:"updatedAt"`
}

// ReportedByUser reports whether id is the original reporter.
func (o *Occurrence) ReportedByUser(id primitive.ObjectID) bool {
	return o.ReportedBy != nil && *o.ReportedBy == id
}

// OccurrenceView is an occurrence with its reporter and confirmations populated.
type OccurrenceView struct {
	Occurrence    `bson:",inline"`
	Reporter      *UserSummary       `json:"reportedBy"`
	Confirmations []ConfirmationView `json:"confirmations,omitempty"`
}

// LocationInput uses pointers so a missing coordinate is distinguishable from 0.
type LocationInput struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

func (l *LocationInput) Point() GeoPoint {
	return GeoPoint{Lat: *l.Lat, Lng: *l.Lng}
}

// OccurrenceInput is the payload for create and full update.
type OccurrenceInput struct {
	Type        OccurrenceType `json:"type" validate:"required,oneof=pothole lighting trash signage other"`
	Title       string         `json:"title" validate:"required,min=5,max=100"`
	Description string         `json:"description" validate:"required,min=10,max=500"`
	Address     string         `json:"address" validate:"required,min=5,max=200"`
	Location    *LocationInput `json:"location" validate:"required"`
	Severity    Severity       `json:"severity" validate:"omitempty,oneof=low medium high"`
	Priority    Priority       `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Status      Status         `json:"status" validate:"omitempty,oneof=new in-progress resolved"`
}

// Hotspot is a cluster of occurrences sharing rounded coordinates.
type Hotspot struct {
	Lat   float64 `bson:"lat" json:"lat"`
	Lng   float64 `bson:"lng" json:"lng"`
	Count int64   `bson:"count" json:"count"`
}
