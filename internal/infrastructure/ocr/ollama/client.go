// Package ollama recognizes formulas with a vision model served by Ollama.
package ollama

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func New(baseURL, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Recognize asks the model to transcribe the formula in png as LaTeX.
func (c *Client) Recognize(ctx context.Context, png []byte) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": recognitionPrompt,
		"images": []string{base64.StdEncoding.EncodeToString(png)},
		"stream": false,
		"options": map[string]any{
			"temperature": 0,
		},
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}
