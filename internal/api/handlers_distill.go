package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/distill/internal/parser"
	"github.com/dgallion1/distill/internal/pipeline"
	"github.com/dgallion1/distill/internal/report"
	"github.com/dgallion1/distill/internal/store"
)

// distillParams are the form options shared by single and batch uploads.
type distillParams struct {
	Summary   bool
	Sentences int `validate:"min=1,max=20"`
}

func (s *Server) parseParams(r *http.Request) (distillParams, error) {
	p := distillParams{Sentences: s.cfg.SummarySentences}
	if p.Sentences <= 0 {
		p.Sentences = 2
	}
	if v := r.FormValue("summary"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, fmt.Errorf("summary must be true or false")
		}
		p.Summary = b
	}
	if v := r.FormValue("sentences"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, fmt.Errorf("sentences must be an integer")
		}
		p.Sentences = n
	}
	if err := s.validate.Struct(p); err != nil {
		return p, fmt.Errorf("sentences must be between 1 and 20")
	}
	return p, nil
}

func (s *Server) handleDistill(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	params, err := s.parseParams(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	file.Close()

	job, code, err := s.submit(header, params)
	if err != nil {
		jsonError(w, err.Error(), code)
		return
	}
	writeJSON(w, http.StatusAccepted, jobAccepted(job))
}

func (s *Server) handleBatchDistill(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	params, err := s.parseParams(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	results := make([]map[string]any, 0, len(files))
	for _, fh := range files {
		job, _, err := s.submit(fh, params)
		if err != nil {
			results = append(results, map[string]any{
				"filename": sanitizeFilename(fh.Filename),
				"error":    err.Error(),
			})
			continue
		}
		results = append(results, jobAccepted(job))
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": results})
}

// submit reads one uploaded file and queues it. On failure it returns the
// HTTP status that fits the error.
func (s *Server) submit(fh *multipart.FileHeader, params distillParams) (*pipeline.Job, int, error) {
	filename := sanitizeFilename(fh.Filename)
	if !parser.IsSupportedExtension(filename) {
		return nil, http.StatusBadRequest, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	f, err := fh.Open()
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to open file")
	}
	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	f.Close()
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}

	job, err := pipeline.NewJob(filename, data, params.Summary, params.Sentences)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	if err := s.orchestrator.Submit(job); err != nil {
		return nil, http.StatusServiceUnavailable, err
	}
	return job, http.StatusAccepted, nil
}

func jobAccepted(job *pipeline.Job) map[string]any {
	snap := job.Snapshot()
	return map[string]any{
		"filename":   snap.Filename,
		"job_id":     snap.ID,
		"hash":       snap.Hash,
		"status":     snap.Status,
		"poll_url":   fmt.Sprintf("/api/distill/%s/status", snap.ID),
		"result_url": fmt.Sprintf("/api/distill/%s/result", snap.ID),
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	if !snap.Status.Done() {
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":  "job still running",
			"status": snap.Status,
			"phase":  snap.Phase,
		})
		return
	}
	rec := job.Result()
	if rec == nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "job failed",
			"status": snap.Status,
			"errors": snap.Progress.Errors,
		})
		return
	}
	s.writeRecord(w, r, rec)
}

// writeRecord renders rec in the format named by the "format" query
// parameter. "content=true" includes chapter markup.
func (s *Server) writeRecord(w http.ResponseWriter, r *http.Request, rec *store.Record) {
	format := report.FormatJSON
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := report.ParseFormat(q)
		if err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		format = f
	}
	opts := report.Options{IncludeContent: strings.EqualFold(r.URL.Query().Get("content"), "true")}

	rep := report.Report{
		Title:          rec.Title,
		Author:         rec.Author,
		Source:         rec.Filename,
		IncludeSummary: rec.Summary,
		Chapters:       rec.Chapters,
	}
	w.Header().Set("Content-Type", format.ContentType())
	if err := report.Write(w, rep, format, opts); err != nil {
		s.log.Error("render result failed", "hash", rec.Hash, "error", err)
	}
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	st := s.orchestrator.Store()
	if st == nil {
		jsonError(w, "result store not configured", http.StatusServiceUnavailable)
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	books, err := st.List(r.Context(), limit)
	if err != nil {
		jsonError(w, "failed to list books: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if books == nil {
		books = []store.Info{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	st := s.orchestrator.Store()
	if st == nil {
		jsonError(w, "result store not configured", http.StatusServiceUnavailable)
		return
	}
	rec, err := st.Get(r.Context(), chi.URLParam(r, "hash"))
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to load book: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.writeRecord(w, r, rec)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	st := s.orchestrator.Store()
	if st == nil {
		jsonError(w, "result store not configured", http.StatusServiceUnavailable)
		return
	}
	hash := chi.URLParam(r, "hash")
	err := st.Delete(r.Context(), hash)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to delete book: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": hash})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
