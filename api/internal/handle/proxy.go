package handle

import (
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var proxyClient = &http.Client{Timeout: 30 * time.Second}

// Домены CDN провайдеров, которые разрешено проксировать.
var allowedProxyDomains = []string{"pixelbin.io", "fal.media"}

func proxyAllowed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range allowedProxyDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// ProxyImage отдаёт изображение провайдера с CORS-заголовками.
// Браузер не может забрать картинку с CDN Pixelbin/FAL напрямую.
func (h *Handle) ProxyImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	imageURL := r.URL.Query().Get("url")
	if imageURL == "" {
		writeError(w, http.StatusBadRequest, "url parameter is required")
		return
	}
	if !proxyAllowed(imageURL) {
		writeError(w, http.StatusBadRequest, "URL is not allowed")
		return
	}

	if data, contentType, ok := h.images.Get(r.Context(), imageURL); ok {
		serveImage(w, data, contentType)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), "GET", imageURL, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	resp, err := proxyClient.Do(req)
	if err != nil {
		h.log.Warnw("proxy-image fetch failed", "url", imageURL, "err", err)
		writeError(w, http.StatusBadGateway, "image fetch failed")
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		writeError(w, http.StatusBadGateway, "image fetch failed")
		return
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		writeError(w, http.StatusBadGateway, "image read failed")
		return
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	h.images.Set(r.Context(), imageURL, data, contentType)
	serveImage(w, data, contentType)
}

func serveImage(w http.ResponseWriter, data []byte, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
