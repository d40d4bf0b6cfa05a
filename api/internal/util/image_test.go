package util

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSniffMimeHTTP(t *testing.T) {
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	heic := []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00heic")
	webp := []byte("RIFF\x00\x00\x00\x00WEBPVP8 ")

	assert.Equal(t, "image/jpeg", SniffMimeHTTP(jpeg))
	assert.Equal(t, "image/png", SniffMimeHTTP(png))
	assert.Equal(t, "image/heic", SniffMimeHTTP(heic))
	assert.Equal(t, "image/webp", SniffMimeHTTP(webp))
	assert.Equal(t, "application/octet-stream", SniffMimeHTTP([]byte("plain text")))
}

func TestDecodeBase64MaybeDataURL(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0x01}
	b64 := base64.StdEncoding.EncodeToString(payload)

	t.Run("plain base64", func(t *testing.T) {
		got, mime, err := DecodeBase64MaybeDataURL(b64)
		assert.NoError(t, err)
		assert.Equal(t, payload, got)
		assert.Equal(t, "", mime)
	})

	t.Run("data url carries mime hint", func(t *testing.T) {
		got, mime, err := DecodeBase64MaybeDataURL("data:image/jpeg;base64," + b64)
		assert.NoError(t, err)
		assert.Equal(t, payload, got)
		assert.Equal(t, "image/jpeg", mime)
	})

	t.Run("url-safe alphabet accepted", func(t *testing.T) {
		urlSafe := base64.URLEncoding.EncodeToString([]byte{0xFB, 0xFF, 0xFE})
		got, _, err := DecodeBase64MaybeDataURL(urlSafe)
		assert.NoError(t, err)
		assert.Equal(t, []byte{0xFB, 0xFF, 0xFE}, got)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, _, err := DecodeBase64MaybeDataURL("это не base64!!!")
		assert.Error(t, err)
	})
}

func TestPickMIME(t *testing.T) {
	assert.Equal(t, "image/png", PickMIME("image/png", "image/jpeg", nil))
	assert.Equal(t, "image/jpeg", PickMIME("", "image/jpeg", nil))
	assert.Equal(t, "image/jpeg", PickMIME("", "", []byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.Equal(t, "image/jpeg", PickMIME("", "", nil))
}

func TestSHA256Hex(t *testing.T) {
	a := SHA256Hex([]byte("image-bytes"))
	b := SHA256Hex([]byte("image-bytes"))
	c := SHA256Hex([]byte("other"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
