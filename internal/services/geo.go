package services

import (
	"math"
	"strconv"
	"strings"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/repository"
)

// ParseBBox parses "minLng,minLat,maxLng,maxLat". An empty string means no box.
func ParseBBox(s string) (*repository.BBox, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	invalid := apperr.Validation("Invalid bounding box",
		apperr.FieldError{Field: "bbox", Message: "bbox must be minLng,minLat,maxLng,maxLat"})

	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, invalid
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, invalid
		}
		vals[i] = v
	}
	box := &repository.BBox{MinLng: vals[0], MinLat: vals[1], MaxLng: vals[2], MaxLat: vals[3]}
	if box.MinLng > box.MaxLng || box.MinLat > box.MaxLat ||
		box.MinLat < -90 || box.MaxLat > 90 || box.MinLng < -180 || box.MaxLng > 180 {
		return nil, invalid
	}
	return box, nil
}
