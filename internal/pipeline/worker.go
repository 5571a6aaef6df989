package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/distill/internal/distill"
	"github.com/dgallion1/distill/internal/parser"
	"github.com/dgallion1/distill/internal/report"
	"github.com/dgallion1/distill/internal/store"
	"github.com/dgallion1/distill/internal/summarize"
)

// Worker processes a single book job.
type Worker struct {
	store      *store.Store
	summarizer *summarize.Summarizer
	log        *slog.Logger
	loadOpts   parser.Options
}

func NewWorker(st *store.Store, sum *summarize.Summarizer, log *slog.Logger, loadOpts parser.Options) *Worker {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Worker{store: st, summarizer: sum, log: log, loadOpts: loadOpts}
}

// Process runs the full distill pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "hash", job.Hash[:min(12, len(job.Hash))], "filename", job.Filename)
	defer job.releaseFileData()

	// Phase 1: cache lookup, then load.
	job.SetStatus(StatusLoading, "loading")
	if rec := w.cached(ctx, job, log); rec != nil {
		job.SetResult(rec)
		job.SetProgress(len(rec.Chapters), len(rec.Chapters))
		job.SetFound(countFound(rec.Chapters))
		job.SetStatus(StatusCached, "done")
		log.Info("served from cache", "chapters", len(rec.Chapters))
		return
	}

	book, err := parser.LoadBytes(job.FileData(), job.Filename, w.loadOpts)
	if err != nil {
		log.Error("load failed", "error", err)
		job.AddError(fmt.Sprintf("load: %s", err))
		job.SetStatus(StatusFailed, "loading")
		return
	}
	d := distill.New(book, w.summarizer, log)
	rep := report.New(book, nil, job.Summary)
	job.SetTitle(rep.Title)

	entries := d.Entries()
	if len(entries) == 0 {
		log.Warn("book has no table of contents entries")
		job.AddError("no chapters found")
		job.SetStatus(StatusFailed, "loading")
		return
	}
	job.SetProgress(0, len(entries))

	// Phase 2: extract.
	job.SetStatus(StatusExtracting, "extracting")
	chapters, err := d.Extract(ctx, job.SetProgress)
	if err != nil {
		log.Error("extraction interrupted", "error", err)
		job.AddError(fmt.Sprintf("extract: %s", err))
		job.SetStatus(StatusFailed, "extracting")
		return
	}
	found := countFound(chapters)
	job.SetFound(found)

	hadErrors := false
	for _, ch := range chapters {
		if ch.Error != "" {
			job.AddError(fmt.Sprintf("%s: %s", ch.ID, ch.Error))
			hadErrors = true
		}
	}
	log.Info("extraction complete", "chapters", len(chapters), "found", found)

	// Phase 3: summarize.
	if job.Summary {
		job.SetStatus(StatusSummarizing, "summarizing")
		job.SetProgress(0, len(chapters))
		if err := d.Summarize(ctx, chapters, job.Sentences, job.SetProgress); err != nil {
			log.Error("summarization interrupted", "error", err)
			job.AddError(fmt.Sprintf("summarize: %s", err))
			job.SetStatus(StatusFailed, "summarizing")
			return
		}
	}

	rec := &store.Record{
		Hash:      job.Hash,
		Filename:  job.Filename,
		Title:     rep.Title,
		Author:    rep.Author,
		Summary:   job.Summary,
		Sentences: job.Sentences,
		Chapters:  chapters,
		CreatedAt: time.Now().UTC(),
	}
	if w.summarizer != nil {
		rec.Fallback = w.summarizer.FallbackName()
	}
	job.SetResult(rec)

	// Phase 4: store.
	if w.store != nil {
		job.SetStatus(StatusStoring, "storing")
		if err := w.store.Put(ctx, *rec); err != nil {
			log.Error("store failed", "error", err)
			job.AddError(fmt.Sprintf("store: %s", err))
			hadErrors = true
		}
	}

	if hadErrors || found < len(chapters) {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("job finished", "found", found, "chapters", len(chapters), "errors", hadErrors)
}

// cached returns a stored record produced with the job's settings.
func (w *Worker) cached(ctx context.Context, job *Job, log *slog.Logger) *store.Record {
	if w.store == nil {
		return nil
	}
	rec, err := w.store.Get(ctx, job.Hash)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn("cache lookup failed, proceeding", "error", err)
		}
		return nil
	}
	if !rec.Matches(job.Summary, job.Sentences) {
		log.Debug("cached record has different summary settings")
		return nil
	}
	return rec
}

func countFound(chapters []distill.Chapter) int {
	n := 0
	for _, ch := range chapters {
		if ch.Found {
			n++
		}
	}
	return n
}
