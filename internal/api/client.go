package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/qrforge/qrforge/internal/render"
)

// maxResponseSize bounds how much of a response body the client reads.
const maxResponseSize = 32 << 20

// Client talks to a qrforge server.
type Client struct {
	baseURL string
	secret  string
	client  *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL, secret string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		secret:  secret,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CloseIdleConnections closes keep-alive connections held by the client.
func (c *Client) CloseIdleConnections() {
	c.client.CloseIdleConnections()
}

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
	Kind       string
	Ratio      float64
	MinRatio   float64
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("server returned %d (%s): %s", e.StatusCode, e.Kind, e.Message)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// GenerateBasic returns a plain black on white PNG for content. size <= 0
// lets the server choose the image size.
func (c *Client) GenerateBasic(ctx context.Context, content string, size int) ([]byte, error) {
	q := url.Values{}
	q.Set("url", content)
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+PathGenerateBasic+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.do(req)
}

// CustomRequest describes a styled QR code. Empty colours and style fall
// back to the server defaults.
type CustomRequest struct {
	URL       string
	FillColor string
	BackColor string
	Style     render.ModuleStyle

	// Logo, if set, is uploaded as the logo_file part named LogoName.
	Logo     io.Reader
	LogoName string
}

// GenerateCustom returns a styled PNG.
func (c *Client) GenerateCustom(ctx context.Context, cr CustomRequest) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fields := []struct{ key, value string }{
		{"url", cr.URL},
		{"fill_color", cr.FillColor},
		{"back_color", cr.BackColor},
		{"module_style", string(cr.Style)},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := mw.WriteField(f.key, f.value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", f.key, err)
		}
	}

	if cr.Logo != nil {
		name := cr.LogoName
		if name == "" {
			name = "logo.png"
		}
		part, err := mw.CreateFormFile("logo_file", name)
		if err != nil {
			return nil, fmt.Errorf("create logo part: %w", err)
		}
		if _, err := io.Copy(part, cr.Logo); err != nil {
			return nil, fmt.Errorf("write logo: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+PathGenerateCustom, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req)
}

// Health reports whether the server answers its health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+PathHealth, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	data, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := json.Unmarshal(data, &health); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &health, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set(SecretHeader, c.secret)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var er ErrorResponse
		if json.Unmarshal(data, &er) == nil && er.Error != "" {
			apiErr.Message = er.Error
			apiErr.Kind = er.Kind
			apiErr.Ratio = er.Ratio
			apiErr.MinRatio = er.MinRatio
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return nil, apiErr
	}

	return data, nil
}
