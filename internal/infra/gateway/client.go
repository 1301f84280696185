package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bryanwahyu/dspm-console/internal/domain/credentials"
	"github.com/bryanwahyu/dspm-console/internal/domain/workflow"
)

// Backend endpoint paths consumed by the console.
const (
	pathStoreBucket    = "/store-bucket-name"
	pathUploadCreds    = "/upload-credentials"
	pathDataScan       = "/data-scan"
	pathGenerateData   = "/generatedata"
	pathReportDownload = "/download-report"
	pathBundleDownload = "/download-artifacts"
	pathHealth         = "/health"
)

// StatusError is returned for any non-2xx backend response.
type StatusError struct {
	Op   string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s: status %d", e.Op, e.Code)
}

// Download is a fetched binary artifact. The filename comes from the
// Content-Disposition header when the backend sets one.
type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Client wraps the remote DSPM backend's HTTP surface. It implements both the
// credentials.Uploader and workflow.ScanGateway ports.
type Client struct {
	base string
	http *http.Client
	// scan client carries no timeout; the remote scan runs for minutes
	scan *http.Client
}

var (
	_ credentials.Uploader = (*Client)(nil)
	_ workflow.ScanGateway = (*Client)(nil)
)

// New builds a client for the backend at baseURL. timeout applies to the
// short calls; the scan trigger deliberately runs without one because the
// remote operation can take minutes.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
		scan: &http.Client{},
	}
}

// StoreBucketName persists the object-storage bucket identifier ahead of the
// generic credential upload.
func (c *Client) StoreBucketName(ctx context.Context, bucket string) error {
	payload := map[string]string{"bucket_name": bucket}
	resp, err := c.postJSON(ctx, c.http, pathStoreBucket, "", payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusErr("store bucket name", resp)
	}
	return nil
}

// UploadBundle persists the full credential bundle and returns the backend's
// file/reference URL from the response body.
func (c *Client) UploadBundle(ctx context.Context, provider string, bundle credentials.Bundle) (string, error) {
	payload := map[string]any{
		"provider":    provider,
		"credentials": bundle,
	}
	resp, err := c.postJSON(ctx, c.http, pathUploadCreds, "", payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusErr("credential upload", resp)
	}
	var body struct {
		FileURL string `json:"file_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	return body.FileURL, nil
}

// TriggerScan sends the three probe templates in one request, authenticated
// with the operator's bearer credential, and blocks until the backend has run
// all three phases. No client-side timeout is applied.
func (c *Client) TriggerScan(ctx context.Context, bearer string, def workflow.ScanDefinition) (string, error) {
	payload := map[string]any{"curl_commands": def.Probes()}
	resp, err := c.postJSON(ctx, c.scan, pathDataScan, bearer, payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read scan response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{Op: "scan trigger", Code: resp.StatusCode, Body: string(raw)}
	}
	return string(raw), nil
}

// GenerateData asks the backend to produce a downloadable test artifact.
func (c *Client) GenerateData(ctx context.Context, filetype, datatype string) (*Download, error) {
	q := url.Values{}
	q.Set("filetype", filetype)
	if datatype != "" {
		q.Set("datatype", datatype)
	}
	return c.download(ctx, "data generation", pathGenerateData+"?"+q.Encode(), "data."+filetype)
}

// DownloadReport fetches the rendered scan report.
func (c *Client) DownloadReport(ctx context.Context) (*Download, error) {
	return c.download(ctx, "report download", pathReportDownload, "scan-report.pdf")
}

// DownloadArtifacts fetches the zipped scan artifact bundle.
func (c *Client) DownloadArtifacts(ctx context.Context) (*Download, error) {
	return c.download(ctx, "artifact download", pathBundleDownload, "scan-artifacts.zip")
}

// Ping probes the backend health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+pathHealth, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusErr("health", resp)
	}
	return nil
}

func (c *Client) download(ctx context.Context, op, path, fallbackName string) (*Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusErr(op, resp)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}
	return &Download{
		Filename:    filenameFromHeader(resp.Header.Get("Content-Disposition"), fallbackName),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        raw,
	}, nil
}

func (c *Client) postJSON(ctx context.Context, hc *http.Client, path, bearer string, payload any) (*http.Response, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend %s: %w", strings.TrimPrefix(path, "/"), err)
	}
	return resp, nil
}

func statusErr(op string, resp *http.Response) *StatusError {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Op: op, Code: resp.StatusCode, Body: string(raw)}
}

// filenameFromHeader parses a Content-Disposition header, falling back to a
// sane default when the header is missing or malformed.
func filenameFromHeader(header, fallback string) string {
	if header == "" {
		return fallback
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return fallback
	}
	if name := strings.TrimSpace(params["filename"]); name != "" {
		return name
	}
	return fallback
}
