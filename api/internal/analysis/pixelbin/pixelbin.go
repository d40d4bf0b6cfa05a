// Package pixelbin — клиент Pixelbin Skin Analysis API.
// Протокол: multipart-загрузка создаёт задачу, дальше опрос статуса по job id.
package pixelbin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"skin-analyzer/api/internal/analysis"
)

// Kind классифицирует ошибки API: по нему решается, стоит ли пробовать
// другой вариант изображения или сразу уходить на эвристики.
type Kind string

const (
	KindValidation Kind = "validation_failed"
	KindUsageLimit Kind = "usage_limit_exceeded"
	KindRateLimit  Kind = "rate_limit_exceeded"
	KindServer     Kind = "server_error"
	KindAPI        Kind = "api_error"
)

type APIError struct {
	Kind       Kind
	StatusCode int
	ErrorCode  string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("pixelbin %d (%s): %s", e.StatusCode, e.Kind, e.Message)
}

// Abort — true для ошибок, после которых повторы бессмысленны.
func (e *APIError) Abort() bool { return e.Kind == KindUsageLimit }

type Client struct {
	AccessToken string
	BaseURL     string
	PollTries   int
	PollDelay   time.Duration
	httpc       *http.Client
}

func New(token, baseURL string, pollTries int, pollDelay time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://api.pixelbin.io/service/platform/transformation/v1.0/predictions"
	}
	if pollTries <= 0 {
		pollTries = 10
	}
	if pollDelay <= 0 {
		pollDelay = 3 * time.Second
	}
	return &Client{
		AccessToken: strings.TrimSpace(token),
		BaseURL:     strings.TrimRight(baseURL, "/"),
		PollTries:   pollTries,
		PollDelay:   pollDelay,
		httpc:       &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) Enabled() bool { return c.AccessToken != "" }

// Job — ответ Pixelbin: и созданная задача, и результат опроса.
type Job struct {
	ID     string          `json:"_id"`
	Status string          `json:"status"` // ACCEPTED | PREPARING | PROCESSING | SUCCESS | FAILURE
	Input  jobInput        `json:"input"`
	Output json.RawMessage `json:"output"`
}

type jobInput struct {
	Image string `json:"image"`
}

// Upload отправляет изображение и возвращает созданную задачу.
func (c *Client) Upload(ctx context.Context, img []byte, filename string) (*Job, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("pixelbin: access token is empty")
	}
	if filename == "" {
		filename = "image.jpg"
	}
	mime := "image/jpeg"
	if strings.HasSuffix(strings.ToLower(filename), ".png") {
		mime = "image/png"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(map[string][]string{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="input.image"; filename=%q`, filename)},
		"Content-Type":        {mime},
	})
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(img); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	url := c.BaseURL + "/skinAnalysisInt/generate"
	req, err := http.NewRequestWithContext(ctx, "POST", url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classify(resp.StatusCode, raw)
	}

	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("pixelbin: bad upload response: %w", err)
	}
	if job.ID == "" {
		return nil, fmt.Errorf("pixelbin: upload response without job id")
	}
	return &job, nil
}

// CheckStatus опрашивает задачу до терминального статуса либо исчерпания
// попыток. При 429 задержка удваивается, 5xx ретраится.
func (c *Client) CheckStatus(ctx context.Context, jobID string) (*Job, error) {
	if jobID == "" {
		return nil, fmt.Errorf("pixelbin: empty job id")
	}
	statusURL := c.BaseURL + "/" + jobID

	var last *Job
	for attempt := 1; attempt <= c.PollTries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "GET", statusURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+c.AccessToken)

		resp, err := c.httpc.Do(req)
		if err != nil {
			if attempt < c.PollTries {
				if werr := wait(ctx, c.PollDelay); werr != nil {
					return nil, werr
				}
				continue
			}
			return nil, err
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := classify(resp.StatusCode, raw)
			switch apiErr.Kind {
			case KindUsageLimit:
				return nil, apiErr
			case KindRateLimit:
				if attempt < c.PollTries {
					if werr := wait(ctx, c.PollDelay*2); werr != nil {
						return nil, werr
					}
					continue
				}
			default:
				if attempt < c.PollTries {
					if werr := wait(ctx, c.PollDelay); werr != nil {
						return nil, werr
					}
					continue
				}
			}
			return nil, apiErr
		}

		var job Job
		if err := json.Unmarshal(raw, &job); err != nil {
			return nil, fmt.Errorf("pixelbin: bad status response: %w", err)
		}
		last = &job

		switch job.Status {
		case "SUCCESS", "FAILURE":
			return &job, nil
		case "ACCEPTED", "PREPARING", "PROCESSING":
			if attempt < c.PollTries {
				if werr := wait(ctx, c.PollDelay); werr != nil {
					return nil, werr
				}
				continue
			}
		}
	}
	// задача всё ещё крутится — отдаём последнее состояние
	return last, nil
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func classify(status int, body []byte) *APIError {
	msg := strings.TrimSpace(string(body))
	if len(msg) > 500 {
		msg = msg[:500]
	}

	var parsed struct {
		ErrorCode string `json:"errorCode"`
		Exception string `json:"exception"`
	}
	_ = json.Unmarshal(body, &parsed)

	e := &APIError{StatusCode: status, ErrorCode: parsed.ErrorCode, Message: msg}
	switch {
	case status == 400:
		if strings.Contains(strings.ToLower(msg), "validation") || strings.Contains(parsed.ErrorCode, "JR-0400") {
			e.Kind = KindValidation
		} else {
			e.Kind = KindAPI
		}
	case status == 403:
		// 403 у Pixelbin означает лимит либо запрет, повторы не помогут
		e.Kind = KindUsageLimit
	case status == 429:
		e.Kind = KindRateLimit
	case status >= 500:
		e.Kind = KindServer
	default:
		e.Kind = KindAPI
	}
	return e
}

// skinData — интересующая часть output Pixelbin.
type skinData struct {
	InputImage    string `json:"inputImage"`
	FacialHairURL string `json:"facial_hair_url"`
	CombineMasked string `json:"combine_masked_url"`
	Zones         map[string]struct {
		Image string `json:"image"`
		Type  string `json:"type"`
	} `json:"zones"`
	Concerns []struct {
		Name     string  `json:"name"`
		TechName string  `json:"tech_name"`
		Value    float64 `json:"value"`
		Severity string  `json:"severity"`
		Image    string  `json:"image"`
	} `json:"concerns"`
}

// ExtractImages разбирает output задачи в элементы для ответа /api/analyze:
// исходник, обработанное фото, зоны лица, комбинированная маска и concerns.
func ExtractImages(job *Job) []analysis.ResultImage {
	var images []analysis.ResultImage
	if job == nil || len(job.Output) == 0 {
		return images
	}

	var out struct {
		SkinData skinData `json:"skinData"`
	}
	if err := json.Unmarshal(job.Output, &out); err != nil {
		return images
	}
	sd := out.SkinData

	if job.Input.Image != "" {
		images = append(images, analysis.ResultImage{
			Type: "input", URL: job.Input.Image, Title: "Исходное изображение",
		})
	}
	if sd.InputImage != "" {
		images = append(images, analysis.ResultImage{
			Type: "processed", URL: sd.InputImage, Title: "Обработанное изображение",
		})
	}
	if sd.FacialHairURL != "" {
		images = append(images, analysis.ResultImage{
			Type: "facial_hair", URL: sd.FacialHairURL, Title: "Facial Hair",
		})
	}
	for _, zoneName := range []string{"t_zone", "u_zone"} {
		zone, ok := sd.Zones[zoneName]
		if !ok || zone.Image == "" {
			continue
		}
		title := "T-зона"
		if zoneName == "u_zone" {
			title = "U-зона"
		}
		if zone.Type != "" {
			title = fmt.Sprintf("%s (%s)", title, zone.Type)
		}
		images = append(images, analysis.ResultImage{Type: "zone", URL: zone.Image, Title: title})
	}
	if sd.CombineMasked != "" {
		images = append(images, analysis.ResultImage{
			Type: "mask", URL: sd.CombineMasked, Title: "Комбинированная маска",
		})
	}

	var concerns []analysis.PixelbinConcern
	for _, c := range sd.Concerns {
		concerns = append(concerns, analysis.PixelbinConcern{
			Name: c.Name, TechName: c.TechName, Value: c.Value,
		})
		if c.Image == "" {
			continue
		}
		title := c.Name
		if title == "" {
			title = "Проблема"
		}
		images = append(images, analysis.ResultImage{
			Type: "concern", URL: c.Image, Title: title,
			Concerns: []analysis.PixelbinConcern{{Name: c.Name, TechName: c.TechName, Value: c.Value}},
		})
	}

	// сводный элемент с полным списком concerns для статистики
	if len(concerns) > 0 {
		images = append(images, analysis.ResultImage{Type: "concerns", Concerns: concerns})
	}
	return images
}
