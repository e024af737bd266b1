package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"complaint-cli/internal/config"

	"github.com/google/uuid"
)

const clientIdentifier = "complaint-cli"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.ServerURL(),
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout(),
		},
	}
}

// BaseURL returns the server the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", clientIdentifier)
	req.Header.Set("X-Request-ID", uuid.NewString())
}

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, body)
}

// StatusCode extracts the HTTP status from err, or 0 when err is not an HTTP error.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}

// --- Analysis ---

type AnalyzeRequest struct {
	Text string `json:"text"`
}

// Analyze submits text for analysis. A JSON null body returns a nil complaint
// and no error; callers decide whether that counts as a failure.
func (c *Client) Analyze(ctx context.Context, text string) (*Complaint, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/complaint/analyze", AnalyzeRequest{Text: text}, &raw); err != nil {
		return nil, err
	}
	complaint, err := DecodeComplaint(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return complaint, nil
}

// --- History ---

func (c *Client) History(ctx context.Context) ([]Complaint, error) {
	var resp []Complaint
	if err := c.doJSON(ctx, http.MethodGet, "/complaint/history", nil, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		resp = []Complaint{}
	}
	return resp, nil
}

// --- Diagnostics ---

type HealthResponse struct {
	Status string `json:"status"`
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/complaint/test", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

type AgentsResponse struct {
	Agents []string `json:"agents"`
}

func (c *Client) Agents(ctx context.Context) (*AgentsResponse, error) {
	var resp AgentsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/complaint/agents", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MockAgentsResponse is the canned retrieval-agent output the backend exposes
// for previewing action plans.
type MockAgentsResponse struct {
	ActionPlan *ActionPlan `json:"action_plan,omitempty"`
}

func (c *Client) MockAgents(ctx context.Context) (*MockAgentsResponse, error) {
	var resp MockAgentsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/complaint/mock-agents", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Generic JSON helper ---

func (c *Client) doJSON(ctx context.Context, method, path string, reqBody interface{}, result interface{}) error {
	var bodyReader io.Reader
	if reqBody != nil && method != http.MethodGet {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	c.setHeaders(req, bodyReader != nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("parsing response: %w", err)
		}
	}
	return nil
}
