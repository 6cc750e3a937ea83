package services

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
)

// pngWithHeader encodes a 1x1 PNG and rewrites its IHDR to claim width x height.
func pngWithHeader(t *testing.T, width, height uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	b := buf.Bytes()
	// signature(8) | length(4) "IHDR"(4) | width(4) height(4) ... | crc(4)
	require.Equal(t, "IHDR", string(b[12:16]))
	binary.BigEndian.PutUint32(b[16:20], width)
	binary.BigEndian.PutUint32(b[20:24], height)
	binary.BigEndian.PutUint32(b[29:33], crc32.ChecksumIEEE(b[12:29]))
	return b
}

func TestProcessImageRejectsHugeDimensions(t *testing.T) {
	raw := pngWithHeader(t, 10000, 10000)

	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, 10000, cfg.Width)

	_, err = ProcessImage(bytes.NewReader(raw))
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "Image dimensions too large", apperr.Message(err))
}

func TestProcessImageBoundsLargeEdges(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 3200, 400))))

	out, err := ProcessImage(&buf)
	require.NoError(t, err)
	assert.Equal(t, 1600, out.Width)
	assert.Equal(t, 200, out.Height)
	assert.Nil(t, out.Location)
}
