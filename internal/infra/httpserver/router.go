package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	appai "github.com/bryanwahyu/dspm-console/internal/application/ai"
	appwizard "github.com/bryanwahyu/dspm-console/internal/application/wizard"
	appworkflow "github.com/bryanwahyu/dspm-console/internal/application/workflow"
	domai "github.com/bryanwahyu/dspm-console/internal/domain/ai"
	"github.com/bryanwahyu/dspm-console/internal/domain/credentials"
	domain "github.com/bryanwahyu/dspm-console/internal/domain/workflow"
	"github.com/bryanwahyu/dspm-console/internal/infra/gateway"
	"github.com/bryanwahyu/dspm-console/internal/middleware"
)

// Downloader is the slice of the backend gateway the router needs for
// artifact retrieval.
type Downloader interface {
	GenerateData(ctx context.Context, filetype, datatype string) (*gateway.Download, error)
	DownloadReport(ctx context.Context) (*gateway.Download, error)
	DownloadArtifacts(ctx context.Context) (*gateway.Download, error)
}

// Archiver mirrors downloaded artifacts to the configured bucket.
type Archiver interface {
	Archive(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type Router struct {
	wizardSvc    *appwizard.Service
	workflowSvc  *appworkflow.Service
	aiSvc        *appai.Service
	downloads    Downloader
	archive      Archiver // optional
	artifactsDir string
}

func NewRouter(wizardSvc *appwizard.Service, workflowSvc *appworkflow.Service, aiSvc *appai.Service, downloads Downloader, archive Archiver, artifactsDir string) http.Handler {
	r := &Router{
		wizardSvc:    wizardSvc,
		workflowSvc:  workflowSvc,
		aiSvc:        aiSvc,
		downloads:    downloads,
		archive:      archive,
		artifactsDir: artifactsDir,
	}
	mux := chi.NewRouter()

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/wizard", r.wrap(r.handleWizardOpen))
		rt.Get("/wizard/{id}", r.wrap(r.handleWizardGet))
		rt.Post("/wizard/{id}/vendor", r.wrap(r.handleWizardVendor))
		rt.Post("/wizard/{id}/datastore", r.wrap(r.handleWizardDatastore))
		rt.Put("/wizard/{id}/fields/{key}", r.wrap(r.handleWizardField))
		rt.Post("/wizard/{id}/back", r.wrap(r.handleWizardBack))
		rt.Post("/wizard/{id}/submit", r.wrap(r.handleWizardSubmit))
		rt.Post("/wizard/{id}/cancel", r.wrap(r.handleWizardCancel))

		rt.Get("/scan", r.wrap(r.handleScanSnapshot))
		rt.Post("/scan/start", r.wrap(r.handleScanStart))
		rt.Put("/scan/definition", r.wrap(r.handleScanDefinition))
		rt.Post("/scan/run", r.wrap(r.handleScanRun))
		rt.Post("/scan/retry", r.wrap(r.handleScanRetry))
		rt.Post("/scan/rerun", r.wrap(r.handleScanRerun))
		rt.Post("/scan/reset", r.wrap(r.handleScanReset))
		rt.Post("/scan/analyze", r.wrap(r.handleScanAnalyze))
		rt.Get("/scan/report", r.wrap(r.handleReportDownload))
		rt.Get("/scan/artifacts", r.wrap(r.handleArtifactsDownload))
		rt.Get("/scan/history", r.wrap(r.handleScanHistory))

		rt.Get("/generate", r.wrap(r.handleGenerateData))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, appwizard.ErrSessionNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, appwizard.ErrWrongStep),
			errors.Is(err, domain.ErrInvalidTransition):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, domain.ErrNotAuthenticated):
			http.Error(w, err.Error(), http.StatusUnauthorized)
		case errors.Is(err, appwizard.ErrUnknownVendor),
			errors.Is(err, appwizard.ErrUnknownField),
			errors.Is(err, credentials.ErrIncompleteBundle),
			errors.Is(err, domain.ErrIncompleteDefinition):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domai.ErrQuotaExceeded):
			http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
		default:
			var gwErr *gateway.StatusError
			if errors.As(err, &gwErr) {
				http.Error(w, err.Error(), http.StatusBadGateway)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

// wizardView shapes a session for the frontend: sensitive values are masked,
// the selectable options for the current step ride along.
type wizardView struct {
	SessionID  string                    `json:"session_id"`
	Step       appwizard.Step            `json:"step"`
	Vendor     credentials.Vendor        `json:"vendor,omitempty"`
	Datastore  credentials.DatastoreID   `json:"datastore,omitempty"`
	Vendors    []credentials.Vendor      `json:"vendors,omitempty"`
	Datastores []credentials.DatastoreID `json:"datastores,omitempty"`
	Fields     []fieldView               `json:"fields,omitempty"`
	CanSubmit  bool                      `json:"can_submit"`
}

type fieldView struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Sensitive bool   `json:"sensitive"`
	Value     string `json:"value"`
	Filled    bool   `json:"filled"`
}

func viewOf(sess *appwizard.Session) wizardView {
	v := wizardView{
		SessionID: sess.ID,
		Step:      sess.Step,
		Vendor:    sess.Vendor,
		Datastore: sess.Datastore,
	}
	switch sess.Step {
	case appwizard.StepSelectVendor:
		v.Vendors = credentials.Vendors()
	case appwizard.StepSelectDatastore:
		v.Datastores = credentials.Datastores(sess.Vendor)
	case appwizard.StepEnterFields, appwizard.StepSubmitting:
		v.CanSubmit = sess.Bundle.Complete(sess.Specs)
		for _, spec := range sess.Specs {
			fv := fieldView{
				Key:       spec.Key,
				Label:     spec.Label,
				Sensitive: spec.Sensitive,
				Filled:    sess.Bundle[spec.Key] != "",
			}
			if !spec.Sensitive {
				fv.Value = sess.Bundle[spec.Key]
			}
			v.Fields = append(v.Fields, fv)
		}
	}
	return v
}

// POST /v1/wizard
func (r *Router) handleWizardOpen(w http.ResponseWriter, req *http.Request) error {
	sess := r.wizardSvc.Open()
	middleware.IncrementWizardSessions()
	return writeJSON(w, viewOf(sess))
}

// GET /v1/wizard/{id}
func (r *Router) handleWizardGet(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.wizardSvc.Get(chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, viewOf(sess))
}

// POST /v1/wizard/{id}/vendor
func (r *Router) handleWizardVendor(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Vendor string `json:"vendor"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	if err := middleware.ValidateVendor(body.Vendor); err != nil {
		return fmt.Errorf("%w: %v", appwizard.ErrUnknownVendor, err)
	}
	sess, err := r.wizardSvc.SelectVendor(chi.URLParam(req, "id"), credentials.Vendor(body.Vendor))
	if err != nil {
		return err
	}
	return writeJSON(w, viewOf(sess))
}

// POST /v1/wizard/{id}/datastore
func (r *Router) handleWizardDatastore(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Datastore string `json:"datastore"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	sess, err := r.wizardSvc.SelectDatastore(chi.URLParam(req, "id"), credentials.DatastoreID(body.Datastore))
	if err != nil {
		return err
	}
	return writeJSON(w, viewOf(sess))
}

// PUT /v1/wizard/{id}/fields/{key}
func (r *Router) handleWizardField(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Value string `json:"value"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return err
	}
	sess, err := r.wizardSvc.SetField(chi.URLParam(req, "id"), chi.URLParam(req, "key"), body.Value)
	if err != nil {
		return err
	}
	return writeJSON(w, viewOf(sess))
}

// POST /v1/wizard/{id}/back
func (r *Router) handleWizardBack(w http.ResponseWriter, req *http.Request) error {
	sess, err := r.wizardSvc.Back(chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, viewOf(sess))
}

// POST /v1/wizard/{id}/submit
// On success the response body is the wizard's completion signal: the selected
// datastore id and the submitted credential bundle.
func (r *Router) handleWizardSubmit(w http.ResponseWriter, req *http.Request) error {
	completion, err := r.wizardSvc.Submit(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		return err
	}
	middleware.IncrementWizardComplete()
	return writeJSON(w, completion)
}

// POST /v1/wizard/{id}/cancel
func (r *Router) handleWizardCancel(w http.ResponseWriter, req *http.Request) error {
	if err := r.wizardSvc.Cancel(chi.URLParam(req, "id")); err != nil {
		return err
	}
	return writeJSON(w, map[string]string{"status": "cancelled"})
}

// GET /v1/scan
func (r *Router) handleScanSnapshot(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, r.workflowSvc.Snapshot())
}

// POST /v1/scan/start
func (r *Router) handleScanStart(w http.ResponseWriter, req *http.Request) error {
	if err := r.workflowSvc.Start(req.Context()); err != nil {
		return err
	}
	return writeJSON(w, r.workflowSvc.Snapshot())
}

// PUT /v1/scan/definition
// Partial edits are accepted and persisted immediately so a reload never
// loses typed probe definitions.
func (r *Router) handleScanDefinition(w http.ResponseWriter, req *http.Request) error {
	var def domain.ScanDefinition
	if err := json.NewDecoder(req.Body).Decode(&def); err != nil {
		return err
	}
	if err := r.workflowSvc.UpdateDefinition(req.Context(), def); err != nil {
		return err
	}
	return writeJSON(w, r.workflowSvc.Snapshot())
}

// POST /v1/scan/run
// The session credential rides in on the Authorization header; its absence is
// an auth error surfaced to the operator, not a transport failure.
func (r *Router) handleScanRun(w http.ResponseWriter, req *http.Request) error {
	bearer := middleware.BearerFromContext(req.Context())
	if err := r.workflowSvc.Run(req.Context(), bearer); err != nil {
		return err
	}
	middleware.IncrementScans()
	return writeJSON(w, r.workflowSvc.Snapshot())
}

// POST /v1/scan/retry
func (r *Router) handleScanRetry(w http.ResponseWriter, req *http.Request) error {
	if err := r.workflowSvc.Retry(req.Context()); err != nil {
		return err
	}
	return writeJSON(w, r.workflowSvc.Snapshot())
}

// POST /v1/scan/rerun
func (r *Router) handleScanRerun(w http.ResponseWriter, req *http.Request) error {
	if err := r.workflowSvc.Rerun(req.Context()); err != nil {
		return err
	}
	return writeJSON(w, r.workflowSvc.Snapshot())
}

// POST /v1/scan/reset
func (r *Router) handleScanReset(w http.ResponseWriter, req *http.Request) error {
	if err := r.workflowSvc.Reset(req.Context()); err != nil {
		return err
	}
	return writeJSON(w, r.workflowSvc.Snapshot())
}

// POST /v1/scan/analyze
func (r *Router) handleScanAnalyze(w http.ResponseWriter, req *http.Request) error {
	if r.aiSvc == nil {
		http.Error(w, "ai summary not configured", http.StatusNotImplemented)
		return nil
	}
	st := r.workflowSvc.Snapshot()
	if st.Phase != domain.PhaseCompleted || st.ResultSummary == nil {
		return fmt.Errorf("%w: analyze requires a completed scan", domain.ErrInvalidTransition)
	}
	summary, err := r.aiSvc.Summarize(req.Context(), *st.ResultSummary)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write([]byte(summary))
	return err
}

// GET /v1/scan/history?limit=20
func (r *Router) handleScanHistory(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	records, err := r.workflowSvc.History(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, records)
}

// GET /v1/scan/report
func (r *Router) handleReportDownload(w http.ResponseWriter, req *http.Request) error {
	dl, err := r.downloads.DownloadReport(req.Context())
	if err != nil {
		return err
	}
	r.archiveCopy(req.Context(), "reports/"+dl.Filename, dl)
	return serveDownload(w, dl)
}

// GET /v1/scan/artifacts
func (r *Router) handleArtifactsDownload(w http.ResponseWriter, req *http.Request) error {
	dl, err := r.downloads.DownloadArtifacts(req.Context())
	if err != nil {
		return err
	}
	r.archiveCopy(req.Context(), "bundles/"+dl.Filename, dl)
	return serveDownload(w, dl)
}

// GET /v1/generate?filetype=json&datatype=pii
func (r *Router) handleGenerateData(w http.ResponseWriter, req *http.Request) error {
	filetype := req.URL.Query().Get("filetype")
	if err := middleware.ValidateFiletype(filetype); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil
	}
	dl, err := r.downloads.GenerateData(req.Context(), filetype, req.URL.Query().Get("datatype"))
	if err != nil {
		return err
	}
	if r.artifactsDir != "" {
		if err := os.MkdirAll(r.artifactsDir, 0o755); err == nil {
			path := filepath.Join(r.artifactsDir, filepath.Base(dl.Filename))
			if werr := os.WriteFile(path, dl.Body, 0o644); werr != nil {
				log.Printf("generate: local save failed: %v", werr)
			}
		}
	}
	return serveDownload(w, dl)
}

// archiveCopy mirrors a download to the artifact bucket, best effort.
func (r *Router) archiveCopy(ctx context.Context, key string, dl *gateway.Download) {
	if r.archive == nil {
		return
	}
	if _, err := r.archive.Archive(ctx, key, dl.Body, dl.ContentType); err != nil {
		log.Printf("artifact archive failed for %s: %v", key, err)
	}
}

func serveDownload(w http.ResponseWriter, dl *gateway.Download) error {
	ct := dl.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Filename))
	_, err := w.Write(dl.Body)
	return err
}

func writeJSON(w http.ResponseWriter, v any) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(v)
}
