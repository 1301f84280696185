package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/dspm-console/internal/domain/credentials"
	"github.com/bryanwahyu/dspm-console/internal/domain/workflow"
)

func TestStoreBucketNamePayload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/store-bucket-name", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	require.NoError(t, c.StoreBucketName(context.Background(), "my-bucket"))
	assert.Equal(t, map[string]string{"bucket_name": "my-bucket"}, got)
}

func TestStoreBucketNameNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := New(srv.URL, time.Second).StoreBucketName(context.Background(), "my-bucket")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
}

func TestUploadBundlePayloadAndFileURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload-credentials", r.URL.Path)
		var body struct {
			Provider    string            `json:"provider"`
			Credentials map[string]string `json:"credentials"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "aws-s3", body.Provider)
		assert.Equal(t, "my-bucket", body.Credentials["AWS_BUCKET_NAME"])

		json.NewEncoder(w).Encode(map[string]string{"file_url": "http://backend/files/1.json"})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	url, err := c.UploadBundle(context.Background(), "aws-s3", credentials.Bundle{"AWS_BUCKET_NAME": "my-bucket"})
	require.NoError(t, err)
	assert.Equal(t, "http://backend/files/1.json", url)
}

func TestTriggerScanSendsThreeProbesAndBearer(t *testing.T) {
	def := workflow.ScanDefinition{
		BearerTokenProbe:    "curl one",
		ScanTriggerProbe:    "curl two",
		InventoryFetchProbe: "curl three",
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data-scan", r.URL.Path)
		assert.Equal(t, "Bearer jwt-token", r.Header.Get("Authorization"))
		var body struct {
			CurlCommands []string `json:"curl_commands"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"curl one", "curl two", "curl three"}, body.CurlCommands)

		w.Write([]byte("Found: 3 emails"))
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	summary, err := c.TriggerScan(context.Background(), "jwt-token", def)
	require.NoError(t, err)
	assert.Equal(t, "Found: 3 emails", summary)
}

func TestTriggerScanHTTPErrorSurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "scan failed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	_, err := c.TriggerScan(context.Background(), "token", workflow.ScanDefinition{})
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
}

func TestDownloadReportFilenameFromHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/download-report", r.URL.Path)
		w.Header().Set("Content-Disposition", `attachment; filename="weekly-report.pdf"`)
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	dl, err := New(srv.URL, time.Second).DownloadReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "weekly-report.pdf", dl.Filename)
	assert.Equal(t, "application/pdf", dl.ContentType)
	assert.Equal(t, []byte("%PDF-1.7"), dl.Body)
}

func TestDownloadArtifactsFallbackFilename(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0x50, 0x4b}) // no content-disposition
	}))
	defer srv.Close()

	dl, err := New(srv.URL, time.Second).DownloadArtifacts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "scan-artifacts.zip", dl.Filename)
}

func TestGenerateDataQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generatedata", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("filetype"))
		assert.Equal(t, "pii", r.URL.Query().Get("datatype"))
		w.Header().Set("Content-Disposition", `attachment; filename="data.json"`)
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	dl, err := New(srv.URL, time.Second).GenerateData(context.Background(), "json", "pii")
	require.NoError(t, err)
	assert.Equal(t, "data.json", dl.Filename)
}

func TestFilenameFromHeader(t *testing.T) {
	cases := map[string]string{
		"":                                   "fallback.bin",
		"attachment":                         "fallback.bin",
		`attachment; filename="report.pdf"`:  "report.pdf",
		`attachment; filename=artifacts.zip`: "artifacts.zip",
		"garbage;;; not a header":            "fallback.bin",
	}
	for header, want := range cases {
		assert.Equal(t, want, filenameFromHeader(header, "fallback.bin"), "header=%q", header)
	}
}
