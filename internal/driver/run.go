package driver

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"scopealloc/internal/cache"
	"scopealloc/internal/config"
	"scopealloc/internal/diag"
	"scopealloc/internal/observ"
	"scopealloc/internal/report"
	"scopealloc/internal/source"
	"scopealloc/internal/trace"
)

// Request describes one run over a file or directory.
type Request struct {
	Path     string
	Jobs     int // <= 0 means GOMAXPROCS
	Config   config.Config
	Cache    *cache.Cache // nil disables caching
	Progress ProgressSink
	// Timings adds an ObsTimings info diagnostic per file.
	Timings bool
}

// FileResult is the outcome for one file. Analysis is nil when the result
// came from the cache or the file could not be read.
type FileResult struct {
	Path     string
	FileID   source.FileID
	Bag      *diag.Bag
	Summary  report.Summary
	Analysis *Analysis
	Cached   bool
	Timing   observ.Report
}

// Result holds every file of a run in input order.
type Result struct {
	FileSet *source.FileSet
	Files   []FileResult
}

// HasErrors reports whether any file produced an error diagnostic.
func (r *Result) HasErrors() bool {
	for i := range r.Files {
		if r.Files[i].Bag.HasErrors() {
			return true
		}
	}
	return false
}

// Summaries returns the summaries in input order.
func (r *Result) Summaries() []report.Summary {
	out := make([]report.Summary, len(r.Files))
	for i := range r.Files {
		out[i] = r.Files[i].Summary
	}
	return out
}

// Diagnostics merges the bags of all files into one capped at max
// (max <= 0 means unlimited).
func (r *Result) Diagnostics(max int) *diag.Bag {
	out := diag.NewBag(max)
	for i := range r.Files {
		for _, d := range r.Files[i].Bag.Items() {
			out.Add(d)
		}
	}
	return out
}

// Timing sums the per-file timings.
func (r *Result) Timing() observ.Report {
	reports := make([]observ.Report, len(r.Files))
	for i := range r.Files {
		reports[i] = r.Files[i].Timing
	}
	return observ.Sum(reports...)
}

// Run loads every file of req.Path and processes them in parallel. Files
// are independent; a failure in one does not stop the others unless ctx is
// cancelled.
func Run(ctx context.Context, req Request) (*Result, error) {
	files, err := ListFiles(req.Path)
	if err != nil {
		return nil, err
	}
	tracer := trace.FromContext(ctx)
	runSpan := trace.Begin(tracer, trace.ScopeDriver, "driver.run", 0)
	defer func() { runSpan.End(fmt.Sprintf("%d files", len(files))) }()

	fs := source.NewFileSetWithBase(baseDir(req.Path))
	res := &Result{FileSet: fs, Files: make([]FileResult, len(files))}
	if len(files) == 0 {
		return res, nil
	}

	loadErrs := make(map[int]error)
	for i, path := range files {
		res.Files[i] = FileResult{Path: path, Bag: diag.NewBag(0)}
		emit(req.Progress, Event{File: path, Stage: StageLoad, Status: StatusQueued})
		id, err := fs.Load(path)
		if err != nil {
			// keep an empty placeholder so the diagnostic can name the file
			loadErrs[i] = err
			id = fs.AddVirtual(path, nil)
		}
		res.Files[i].FileID = id
	}

	jobs := req.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i := range files {
		fr := &res.Files[i]
		if err, failed := loadErrs[i]; failed {
			diag.ReportError(diag.BagReporter{Bag: fr.Bag}, diag.IOLoadFileError, source.Span{File: fr.FileID},
				fmt.Sprintf("failed to load %s: %v", fr.Path, err)).Emit()
			fr.Summary = report.Summary{Path: fr.Path, Funcs: []report.FuncSummary{}, Scopes: []report.Entry{}}
			emit(req.Progress, Event{File: fr.Path, Stage: StageLoad, Status: StatusError, Err: err})
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			span := trace.Begin(tracer, trace.ScopePass, "driver.file", runSpan.ID()).WithExtra("path", fr.Path)
			err := processFile(gctx, fs, fr, req)
			span.End(string(statusOf(fr)))
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	return res, nil
}

func processFile(ctx context.Context, fs *source.FileSet, fr *FileResult, req Request) error {
	start := time.Now()
	file := fs.Get(fr.FileID)
	timer := observ.NewTimer()

	var key cache.Key
	if req.Cache != nil {
		key = cache.KeyOf(file.Content, req.Config.Salt())
		entry, ok, err := req.Cache.Get(key)
		if err != nil {
			trace.Point(trace.FromContext(ctx), trace.ScopePass, "driver.cache", err.Error())
		}
		if ok {
			for _, d := range entry.Diagnostics {
				fr.Bag.Add(d.Bind(fr.FileID))
			}
			fr.Summary = entry.Summary
			fr.Summary.Path = fr.Path
			fr.Cached = true
			if req.Timings {
				diag.ReportInfo(diag.BagReporter{Bag: fr.Bag}, diag.ObsCacheHit, source.Span{File: fr.FileID},
					"result served from cache").Emit()
			}
			emit(req.Progress, Event{File: fr.Path, Stage: StageAlloc, Status: StatusCached, Elapsed: time.Since(start)})
			return nil
		}
	}

	emit(req.Progress, Event{File: fr.Path, Stage: StageParse, Status: StatusWorking})
	a, err := Analyze(ctx, fs, fr.FileID, req.Config, fr.Bag, timer)
	if err != nil {
		emit(req.Progress, Event{File: fr.Path, Stage: StageParse, Status: StatusError, Err: err})
		return err
	}
	emit(req.Progress, Event{File: fr.Path, Stage: StageAlloc, Status: StatusWorking})
	fr.Analysis = a
	fr.Summary = report.Summarize(fr.Path, a.Alloc)
	fr.Timing = timer.Report()

	if req.Cache != nil {
		entry := &cache.Entry{Summary: fr.Summary, Diagnostics: cache.FromDiagnostics(fr.Bag.Items())}
		if err := req.Cache.Put(key, entry); err != nil {
			trace.Point(trace.FromContext(ctx), trace.ScopePass, "driver.cache", err.Error())
		}
	}
	if req.Timings {
		diag.ReportInfo(diag.BagReporter{Bag: fr.Bag}, diag.ObsTimings, source.Span{File: fr.FileID},
			fr.Timing.Summary()).Emit()
	}
	emit(req.Progress, Event{File: fr.Path, Stage: StageAlloc, Status: statusOf(fr), Elapsed: time.Since(start)})
	return nil
}

func statusOf(fr *FileResult) Status {
	switch {
	case fr.Cached:
		return StatusCached
	case fr.Bag.HasErrors():
		return StatusError
	}
	return StatusDone
}
