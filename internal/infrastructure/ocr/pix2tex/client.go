// Package pix2tex talks to a pix2tex API server (python -m pix2tex.api.run).
package pix2tex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/latexsim/latex-similarity/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Recognize uploads the PNG to /predict/ and returns the predicted LaTeX.
func (c *Client) Recognize(ctx context.Context, png []byte) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "formula.png")
	if err != nil {
		return "", fmt.Errorf("create predict form: %w", err)
	}
	if _, err := part.Write(png); err != nil {
		return "", fmt.Errorf("write predict form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close predict form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict/", &body)
	if err != nil {
		return "", fmt.Errorf("create predict request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pix2tex predict request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", resilience.NewHTTPStatusError("pix2tex", "predict", resp)
	}

	var latex string
	if err := json.NewDecoder(resp.Body).Decode(&latex); err != nil {
		return "", fmt.Errorf("decode predict response: %w", err)
	}
	return latex, nil
}
