package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
)

func ptr(f float64) *float64 { return &f }

func validOccurrence() models.OccurrenceInput {
	return models.OccurrenceInput{
		Type:        models.TypePothole,
		Title:       "Deep pothole",
		Description: "Large pothole in the right lane",
		Address:     "Av. Paulista, 1000",
		Location:    &models.LocationInput{Lat: ptr(-23.55), Lng: ptr(-46.63)},
	}
}

func fieldNames(err error) []string {
	var names []string
	for _, f := range apperr.Fields(err) {
		names = append(names, f.Field)
	}
	return names
}

func TestOccurrenceInputValid(t *testing.T) {
	in := validOccurrence()
	assert.NoError(t, Struct(&in))

	in.Location = &models.LocationInput{Lat: ptr(0), Lng: ptr(0)}
	assert.NoError(t, Struct(&in), "zero coordinates are a valid point")
}

func TestOccurrenceInputCoordinateRanges(t *testing.T) {
	tests := []struct {
		name  string
		lat   float64
		lng   float64
		field string
	}{
		{"lat too high", 90.01, 0, "location.lat"},
		{"lat too low", -91, 0, "location.lat"},
		{"lng too high", 0, 180.5, "location.lng"},
		{"lng too low", 0, -181, "location.lng"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validOccurrence()
			in.Location = &models.LocationInput{Lat: ptr(tt.lat), Lng: ptr(tt.lng)}
			err := Struct(&in)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrValidation)
			assert.Contains(t, fieldNames(err), tt.field)
		})
	}
}

func TestOccurrenceInputBoundaries(t *testing.T) {
	in := validOccurrence()
	in.Location = &models.LocationInput{Lat: ptr(90), Lng: ptr(-180)}
	assert.NoError(t, Struct(&in))
}

func TestOccurrenceInputMissingFields(t *testing.T) {
	in := models.OccurrenceInput{}
	err := Struct(&in)
	require.Error(t, err)
	names := fieldNames(err)
	for _, f := range []string{"type", "title", "description", "address", "location"} {
		assert.Contains(t, names, f)
	}
}

func TestOccurrenceInputEnumsAndLengths(t *testing.T) {
	in := validOccurrence()
	in.Type = "buraco"
	in.Title = "abc"
	in.Severity = "extreme"
	err := Struct(&in)
	require.Error(t, err)
	names := fieldNames(err)
	assert.Contains(t, names, "type")
	assert.Contains(t, names, "title")
	assert.Contains(t, names, "severity")

	for _, f := range apperr.Fields(err) {
		if f.Field == "title" {
			assert.Equal(t, "title must be at least 5 characters", f.Message)
		}
	}
}

func TestMissingLatitude(t *testing.T) {
	in := validOccurrence()
	in.Location = &models.LocationInput{Lng: ptr(10)}
	err := Struct(&in)
	require.Error(t, err)
	assert.Contains(t, fieldNames(err), "location.lat")
}

func TestRegisterInput(t *testing.T) {
	err := Struct(&models.RegisterInput{Name: "A", Email: "not-an-email", Password: "123"})
	require.Error(t, err)
	names := fieldNames(err)
	assert.ElementsMatch(t, []string{"name", "email", "password"}, names)

	assert.NoError(t, Struct(&models.RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "secret1"}))
}

func TestConfirmationInput(t *testing.T) {
	long := make([]byte, 201)
	for i := range long {
		long[i] = 'a'
	}
	err := Struct(&models.ConfirmationInput{Comment: string(long)})
	require.Error(t, err)
	assert.Contains(t, fieldNames(err), "comment")

	assert.NoError(t, Struct(&models.ConfirmationInput{}))
	err = Struct(&models.ConfirmationInput{Location: &models.LocationInput{Lat: ptr(100), Lng: ptr(0)}})
	require.Error(t, err)
	assert.Contains(t, fieldNames(err), "location.lat")
}
