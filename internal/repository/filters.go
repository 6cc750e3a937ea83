package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/inframonitor-backend/internal/models"
)

// BBox is a "minLng,minLat,maxLng,maxLat" bounding box.
type BBox struct {
	MinLng float64
	MinLat float64
	MaxLng float64
	MaxLat float64
}

// OccurrenceFilter narrows occurrence listings. Empty fields do not filter.
type OccurrenceFilter struct {
	Type         string
	Status       string
	Severity     string
	Priority     string
	BBox         *BBox
	ReportedBy   *primitive.ObjectID
	CreatedSince time.Time
}

// BSON renders the filter as a Mongo query document.
func (f OccurrenceFilter) BSON() bson.M {
	q := bson.M{}
	if f.Type != "" && f.Type != "all" {
		q["type"] = f.Type
	}
	if f.Status != "" && f.Status != "all" {
		q["status"] = f.Status
	}
	if f.Severity != "" && f.Severity != "all" {
		q["severity"] = f.Severity
	}
	if f.Priority != "" && f.Priority != "all" {
		q["priority"] = f.Priority
	}
	if f.BBox != nil {
		q["location.lat"] = bson.M{"$gte": f.BBox.MinLat, "$lte": f.BBox.MaxLat}
		q["location.lng"] = bson.M{"$gte": f.BBox.MinLng, "$lte": f.BBox.MaxLng}
	}
	if f.ReportedBy != nil {
		q["reported_by"] = *f.ReportedBy
	}
	if !f.CreatedSince.IsZero() {
		q["created_at"] = bson.M{"$gte": f.CreatedSince}
	}
	return q
}

// Match reports whether an in-memory occurrence satisfies the filter, mirroring BSON.
func (f OccurrenceFilter) Match(o *models.Occurrence) bool {
	if f.Type != "" && f.Type != "all" && f.Type != string(o.Type) {
		return false
	}
	if f.Status != "" && f.Status != "all" && f.Status != string(o.Status) {
		return false
	}
	if f.Severity != "" && f.Severity != "all" && f.Severity != string(o.Severity) {
		return false
	}
	if f.Priority != "" && f.Priority != "all" && f.Priority != string(o.Priority) {
		return false
	}
	if f.BBox != nil {
		lat, lng := o.Location.Lat, o.Location.Lng
		if lat < f.BBox.MinLat || lat > f.BBox.MaxLat || lng < f.BBox.MinLng || lng > f.BBox.MaxLng {
			return false
		}
	}
	if f.ReportedBy != nil && !o.ReportedByUser(*f.ReportedBy) {
		return false
	}
	if !f.CreatedSince.IsZero() && o.CreatedAt.Before(f.CreatedSince) {
		return false
	}
	return true
}
