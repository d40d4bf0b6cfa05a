package sam

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"skin-analyzer/api/internal/analysis"
)

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

// белая область в левом верхнем углу, остальное чёрное
func maskPNG(w, h, filledW, filledH int) []byte {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < filledH; y++ {
		for x := 0; x < filledW; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	return encodePNG(img)
}

func photoPNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{180, 150, 130, 255})
		}
	}
	return encodePNG(img)
}

func maskServer(t *testing.T, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestImageSize(t *testing.T) {
	w, h := imageSize(photoPNG(20, 30))
	assert.Equal(t, 20, w)
	assert.Equal(t, 30, h)

	w, h = imageSize([]byte("garbage"))
	assert.Equal(t, 0, w)
	assert.Equal(t, 0, h)
}

func TestDecodeMask(t *testing.T) {
	gray, err := decodeMask(maskPNG(40, 40, 20, 20), 20, 20)
	assert.NoError(t, err)
	assert.Equal(t, 20, gray.Bounds().Dx())
	assert.Equal(t, 20, gray.Bounds().Dy())

	_, err = decodeMask([]byte("not a mask"), 10, 10)
	assert.Error(t, err)
}

func TestSegmentRequiresKey(t *testing.T) {
	c := New("")
	assert.False(t, c.Enabled())
	_, err := c.Segment(context.Background(), photoPNG(4, 4), "acne", time.Second)
	assert.ErrorContains(t, err, "FAL_KEY")
}

func TestRunPipelineWithoutKey(t *testing.T) {
	c := New("")
	res := c.RunPipeline(context.Background(), photoPNG(4, 4), map[string]string{"acne": "Акне"}, 5*time.Second, 0)
	assert.Empty(t, res.Masks)
	assert.Len(t, res.Statuses, 1)
	assert.Contains(t, res.Statuses[0], "FAL_KEY")
}

func TestFilterByCoverage(t *testing.T) {
	c := New("key")
	ctx := context.Background()

	t.Run("oversized mask dropped", func(t *testing.T) {
		full := maskServer(t, maskPNG(10, 10, 10, 10)) // 100% покрытия
		kept := c.filterByCoverage(ctx, []analysis.SAMMask{{URL: full.URL}}, 10, 10, 25)
		assert.Empty(t, kept)
	})

	t.Run("small mask kept", func(t *testing.T) {
		small := maskServer(t, maskPNG(10, 10, 2, 2)) // 4% покрытия
		kept := c.filterByCoverage(ctx, []analysis.SAMMask{{URL: small.URL}}, 10, 10, 25)
		assert.Len(t, kept, 1)
	})

	t.Run("undownloadable mask passes", func(t *testing.T) {
		kept := c.filterByCoverage(ctx, []analysis.SAMMask{{URL: ""}, {URL: "http://127.0.0.1:1/nope"}}, 10, 10, 25)
		assert.Len(t, kept, 2)
	})
}

func TestCreateOverlay(t *testing.T) {
	c := New("key")
	ctx := context.Background()
	photo := photoPNG(10, 10)

	t.Run("paints mask area over dimmed photo", func(t *testing.T) {
		srv := maskServer(t, maskPNG(10, 10, 5, 5))
		out, err := c.CreateOverlay(ctx, photo, map[string]analysis.SAMResult{
			"acne": {Masks: []analysis.SAMMask{{URL: srv.URL}}},
		})
		assert.NoError(t, err)
		assert.NotEmpty(t, out)

		raw, err := base64.StdEncoding.DecodeString(out)
		assert.NoError(t, err)
		decoded, format, err := image.Decode(bytes.NewReader(raw))
		assert.NoError(t, err)
		assert.Equal(t, "jpeg", format)

		// зона маски подсвечена красным, остальное затемнено
		r, g, b, _ := decoded.At(2, 2).RGBA()
		assert.Greater(t, r>>8, uint32(180))
		assert.Less(t, g>>8, uint32(80))
		assert.Less(t, b>>8, uint32(80))

		r, _, _, _ = decoded.At(9, 9).RGBA()
		assert.Less(t, r>>8, uint32(100))
	})

	t.Run("no applicable masks", func(t *testing.T) {
		out, err := c.CreateOverlay(ctx, photo, map[string]analysis.SAMResult{
			"acne": {Masks: []analysis.SAMMask{{URL: ""}}},
		})
		assert.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("bad original", func(t *testing.T) {
		_, err := c.CreateOverlay(ctx, []byte("garbage"), nil)
		assert.Error(t, err)
	})
}
