package compile

import "time"

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageWrite is the build-directory materialization stage.
	StageWrite Stage = "write"
	// StageCompile is the external toolchain stage.
	StageCompile Stage = "compile"
	// StageLink is the session-library linking stage.
	StageLink Stage = "link"
	// StageRun is the artifact execution stage.
	StageRun Stage = "run"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the stage is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the stage is currently working.
	StatusWorking Status = "working"
	// StatusDone indicates the stage finished successfully.
	StatusDone Status = "done"
	// StatusError indicates the stage failed.
	StatusError Status = "error"
)

// Event reports progress for one snippet evaluation.
type Event struct {
	Name    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
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

func emitStage(sink ProgressSink, name string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Name: name, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}
