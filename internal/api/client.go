package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"docxtract-desktop/internal/models"
)

// ErrJobNotFound signals a 404 from the status endpoint. A missing job id is
// unrecoverable: the monitor must tear down immediately instead of counting
// the response toward its error budget.
var ErrJobNotFound = errors.New("job not found")

// Client talks to the Doc Extractor server.
type Client struct {
	baseURL string
	http    *resty.Client
}

// NewClient creates a new extractor API client. token is optional; when set
// it is sent as a bearer token on every request.
//
// The client performs no transport-level retries: the Active Job Monitor owns
// the consecutive-error budget for status polls, and failed uploads are never
// retried automatically.
func NewClient(baseURL, token string) *Client {
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
	}

	client.http = resty.New().
		SetHeader("Accept", "application/json").
		SetTimeout(60 * time.Second)

	if token != "" {
		client.http.SetAuthToken(token)
	}

	return client
}

// BaseURL returns the configured server endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// UploadResponse is the body returned by POST /api/upload.
type UploadResponse struct {
	JobID     string `json:"job_id"`
	Message   string `json:"message"`
	FileCount int    `json:"file_count"`
}

// Upload submits the given files as one multipart request with repeated
// "files" parts and returns the server-assigned job id.
func (c *Client) Upload(paths []string) (*UploadResponse, error) {
	if len(paths) == 0 {
		return nil, errors.New("no files to upload")
	}

	req := c.http.R()
	var opened []*os.File
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
		}
		opened = append(opened, f)
		req.SetFileReader("files", filepath.Base(path), f)
	}

	resp, err := req.Post(c.buildURL("api/upload"))
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("upload rejected: HTTP %d: %s", resp.StatusCode(), serverDetail(resp.Body()))
	}

	var result UploadResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse upload response: %w", err)
	}
	if result.JobID == "" {
		return nil, errors.New("upload response missing job_id")
	}

	return &result, nil
}

// JobStatus fetches the current record for a single job. A 404 returns
// ErrJobNotFound; any other non-2xx is a plain error the caller may absorb
// into its retry budget.
func (c *Client) JobStatus(jobID string) (*models.JobRecord, error) {
	resp, err := c.http.R().Get(c.buildURL(fmt.Sprintf("api/jobs/%s/status", jobID)))
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrJobNotFound
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("status request failed: HTTP %d", resp.StatusCode())
	}

	var record models.JobRecord
	if err := json.Unmarshal(resp.Body(), &record); err != nil {
		return nil, fmt.Errorf("failed to parse status response: %w", err)
	}

	return &record, nil
}

// ListJobs fetches the full job list. An absent or malformed body is treated
// as an empty list, not an error; transport and HTTP failures are errors so
// the synchronizer can distinguish "no jobs" from "could not ask".
func (c *Client) ListJobs() ([]models.JobRecord, error) {
	resp, err := c.http.R().Get(c.buildURL("api/jobs"))
	if err != nil {
		return nil, fmt.Errorf("job list request failed: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("job list request failed: HTTP %d", resp.StatusCode())
	}

	var result struct {
		Jobs []models.JobRecord `json:"jobs"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return []models.JobRecord{}, nil
	}
	if result.Jobs == nil {
		return []models.JobRecord{}, nil
	}

	return result.Jobs, nil
}

// DownloadCSVURL returns the navigation URL for a job's CSV artifact.
func (c *Client) DownloadCSVURL(jobID string) string {
	return c.buildURL(fmt.Sprintf("api/jobs/%s/download/csv", jobID))
}

// DownloadJSONURL returns the navigation URL for a job's JSON artifact.
func (c *Client) DownloadJSONURL(jobID string) string {
	return c.buildURL(fmt.Sprintf("api/jobs/%s/download/json", jobID))
}

// buildURL constructs the full URL for an endpoint
func (c *Client) buildURL(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "/")
	return fmt.Sprintf("%s/%s", c.baseURL, endpoint)
}

// serverDetail extracts the "detail" field FastAPI-style error bodies carry,
// falling back to the raw body.
func serverDetail(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}
