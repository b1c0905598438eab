package driver

import "time"

// Stage is a step of processing one file.
type Stage string

const (
	// StageLoad reads the file from disk.
	StageLoad Stage = "load"
	// StageParse parses and checks the IR.
	StageParse Stage = "parse"
	// StageAlloc runs scope allocation.
	StageAlloc Stage = "alloc"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the file is waiting for a worker.
	StatusQueued Status = "queued"
	// StatusWorking indicates the stage is running.
	StatusWorking Status = "working"
	// StatusDone indicates the file finished.
	StatusDone Status = "done"
	// StatusCached indicates the result was served from the cache.
	StatusCached Status = "cached"
	// StatusError indicates the file finished with error diagnostics.
	StatusError Status = "error"
)

// Event is one progress update. File is empty for run-wide events.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink receives progress events; implementations must be safe for
// concurrent use.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
