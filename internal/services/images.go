package services

import (
	"bytes"
	"image"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
)

const (
	MaxImageBytes = 10 << 20
	// maxImagePixels bounds the decoded bitmap; compressed size says little about it.
	maxImagePixels = 40_000_000
	maxImageEdge   = 1600
	jpegQuality    = 85
)

func init() {
	exif.RegisterParsers(mknote.All...)
}

// ProcessedImage is a normalised JPEG plus whatever EXIF the original carried.
type ProcessedImage struct {
	Data     []byte
	Width    int
	Height   int
	TakenAt  *time.Time
	Location *models.GeoPoint
}

// ProcessImage decodes an upload, applies EXIF orientation, bounds it to maxImageEdge and
// re-encodes it as JPEG. Re-encoding also strips the original metadata.
func ProcessImage(r io.Reader) (*ProcessedImage, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxImageBytes+1))
	if err != nil {
		return nil, apperr.Internal("Failed to read image", err)
	}
	if len(raw) > MaxImageBytes {
		return nil, apperr.Validation("Image too large", apperr.FieldError{Field: "image", Message: "image must be at most 10MB"})
	}

	unsupported := apperr.Validation("Unsupported image format", apperr.FieldError{Field: "image", Message: "image must be a JPEG, PNG, GIF, BMP or TIFF file"})
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, unsupported
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, apperr.Validation("Image dimensions too large", apperr.FieldError{Field: "image", Message: "image must be at most 40 megapixels"})
	}

	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return nil, unsupported
	}
	b := img.Bounds()
	if b.Dx() > maxImageEdge || b.Dy() > maxImageEdge {
		img = imaging.Fit(img, maxImageEdge, maxImageEdge, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, apperr.Internal("Failed to encode image", err)
	}

	out := &ProcessedImage{
		Data:   buf.Bytes(),
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}

	// Most phone photos carry EXIF; PNGs and screenshots usually don't.
	if x, err := exif.Decode(bytes.NewReader(raw)); err == nil {
		if dt, err := x.DateTime(); err == nil {
			t := dt.UTC()
			out.TakenAt = &t
		}
		if lat, lng, err := x.LatLong(); err == nil {
			p := models.GeoPoint{Lat: lat, Lng: lng}
			if p.Valid() {
				out.Location = &p
			}
		}
	}
	return out, nil
}
