package pixelbin

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testClient(baseURL string) *Client {
	c := New("test-token", baseURL, 3, 10*time.Millisecond)
	return c
}

func TestUpload(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "/skinAnalysisInt/generate", r.URL.Path)
			assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

			assert.NoError(t, r.ParseMultipartForm(1<<20))
			_, hdr, err := r.FormFile("input.image")
			assert.NoError(t, err)
			assert.Equal(t, "face.jpg", hdr.Filename)

			w.Write([]byte(`{"_id":"job1","status":"ACCEPTED","input":{"image":"https://cdn.pixelbin.io/in.jpg"}}`))
		}))
		defer srv.Close()

		job, err := testClient(srv.URL).Upload(context.Background(), []byte("jpegbytes"), "face.jpg")
		assert.NoError(t, err)
		assert.Equal(t, "job1", job.ID)
		assert.Equal(t, "ACCEPTED", job.Status)
		assert.Equal(t, "https://cdn.pixelbin.io/in.jpg", job.Input.Image)
	})

	t.Run("usage limit is terminal", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"message":"usage limit exceeded"}`))
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).Upload(context.Background(), []byte("img"), "")
		var apiErr *APIError
		assert.ErrorAs(t, err, &apiErr)
		assert.Equal(t, KindUsageLimit, apiErr.Kind)
		assert.True(t, apiErr.Abort())
	})

	t.Run("validation error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"errorCode":"JR-0400","exception":"ValidationError"}`))
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).Upload(context.Background(), []byte("img"), "")
		var apiErr *APIError
		assert.ErrorAs(t, err, &apiErr)
		assert.Equal(t, KindValidation, apiErr.Kind)
		assert.False(t, apiErr.Abort())
	})

	t.Run("empty token", func(t *testing.T) {
		c := New("", "http://127.0.0.1:1", 1, time.Millisecond)
		_, err := c.Upload(context.Background(), []byte("img"), "")
		assert.Error(t, err)
		assert.False(t, c.Enabled())
	})
}

func TestCheckStatus(t *testing.T) {
	t.Run("polls until success", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/job1", r.URL.Path)
			calls++
			if calls < 3 {
				w.Write([]byte(`{"_id":"job1","status":"PROCESSING"}`))
				return
			}
			w.Write([]byte(`{"_id":"job1","status":"SUCCESS","output":{"skinData":{}}}`))
		}))
		defer srv.Close()

		job, err := testClient(srv.URL).CheckStatus(context.Background(), "job1")
		assert.NoError(t, err)
		assert.Equal(t, "SUCCESS", job.Status)
		assert.Equal(t, 3, calls)
	})

	t.Run("rate limit retried with longer delay", func(t *testing.T) {
		calls := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			w.Write([]byte(`{"_id":"job1","status":"SUCCESS"}`))
		}))
		defer srv.Close()

		job, err := testClient(srv.URL).CheckStatus(context.Background(), "job1")
		assert.NoError(t, err)
		assert.Equal(t, "SUCCESS", job.Status)
	})

	t.Run("still processing returns last state", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"_id":"job1","status":"PROCESSING"}`))
		}))
		defer srv.Close()

		job, err := testClient(srv.URL).CheckStatus(context.Background(), "job1")
		assert.NoError(t, err)
		assert.Equal(t, "PROCESSING", job.Status)
	})

	t.Run("empty job id", func(t *testing.T) {
		_, err := testClient("http://127.0.0.1:1").CheckStatus(context.Background(), "")
		assert.Error(t, err)
	})
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindServer, classify(502, nil).Kind)
	assert.Equal(t, KindRateLimit, classify(429, nil).Kind)
	assert.Equal(t, KindAPI, classify(400, []byte(`{"message":"bad request"}`)).Kind)
	assert.Equal(t, KindValidation, classify(400, []byte(`image validation failed`)).Kind)
}

func TestExtractImages(t *testing.T) {
	job := &Job{
		ID:     "job1",
		Status: "SUCCESS",
		Input:  jobInput{Image: "https://cdn.pixelbin.io/in.jpg"},
		Output: []byte(`{"skinData":{
			"inputImage":"https://cdn.pixelbin.io/proc.jpg",
			"facial_hair_url":"https://cdn.pixelbin.io/hair.jpg",
			"combine_masked_url":"https://cdn.pixelbin.io/mask.jpg",
			"zones":{"t_zone":{"image":"https://cdn.pixelbin.io/t.jpg","type":"oily"}},
			"concerns":[
				{"name":"Акне","tech_name":"acne","value":42,"image":"https://cdn.pixelbin.io/acne.jpg"},
				{"name":"Поры","tech_name":"pores","value":30}
			]
		}}`),
	}

	images := ExtractImages(job)

	types := make([]string, 0, len(images))
	for _, im := range images {
		types = append(types, im.Type)
	}
	assert.Equal(t, []string{"input", "processed", "facial_hair", "zone", "mask", "concern", "concerns"}, types)

	assert.Equal(t, "T-зона (oily)", images[3].Title)

	concern := images[5]
	assert.Len(t, concern.Concerns, 1)
	assert.Equal(t, "acne", concern.Concerns[0].TechName)

	summary := images[len(images)-1]
	assert.Len(t, summary.Concerns, 2)
	assert.Equal(t, 42.0, summary.Concerns[0].Value)

	assert.Empty(t, ExtractImages(nil))
	assert.Empty(t, ExtractImages(&Job{ID: "x"}))
}

func TestPreprocess(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2048, 1536))
	for y := 0; y < 1536; y++ {
		for x := 0; x < 2048; x++ {
			src.SetRGBA(x, y, color.RGBA{200, 170, 150, 255})
		}
	}
	var buf bytes.Buffer
	assert.NoError(t, jpeg.Encode(&buf, src, nil))

	out, err := Preprocess(buf.Bytes())
	assert.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	assert.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.LessOrEqual(t, cfg.Width, 1024)
	assert.LessOrEqual(t, cfg.Height, 1024)

	_, err = Preprocess([]byte("not an image"))
	assert.Error(t, err)
}
