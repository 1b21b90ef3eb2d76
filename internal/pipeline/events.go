package pipeline

import (
	"sync"
	"time"
)

// Stage names a step of the upload pipeline.
type Stage string

const (
	StageUploaded     Stage = "uploaded"
	StageExtracting   Stage = "extracting"
	StageInitializing Stage = "initializing"
	StageTranscribing Stage = "transcribing"
	StageWriting      Stage = "writing"
	StageComplete     Stage = "complete"
	StageFailed       Stage = "failed"
)

// Progress values reported when a stage is entered.
const (
	progressUploaded     = 10
	progressExtracting   = 30
	progressInitializing = 50
	progressTranscribing = 70
	progressWriting      = 90
	progressComplete     = 100
)

var stageMessages = map[Stage]string{
	StageUploaded:     "File uploaded",
	StageExtracting:   "Extracting audio...",
	StageInitializing: "Initializing model...",
	StageTranscribing: "Transcribing audio...",
	StageWriting:      "Generating subtitles...",
	StageComplete:     "Complete!",
	StageFailed:       "Processing failed",
}

// Event is emitted when the pipeline enters a stage, so Time is also the
// completion time of the previous stage.
type Event struct {
	JobID    string    `json:"job_id,omitempty"`
	Stage    Stage     `json:"stage,omitempty"`
	Progress int       `json:"progress,omitempty"`
	Message  string    `json:"message,omitempty"`
	Filename string    `json:"filename,omitempty"`
	Error    string    `json:"error,omitempty"`
	Time     time.Time `json:"time"`
}

// Terminal reports whether no further events follow.
func (e Event) Terminal() bool {
	return e.Stage == StageComplete || e.Stage == StageFailed
}

// EventFunc receives pipeline events in order.
type EventFunc func(Event)

// reporter serializes events and drops anything that would make progress go
// backwards or follow a terminal event.
type reporter struct {
	mu       sync.Mutex
	job      *Job
	emit     EventFunc
	last     int
	finished bool
	now      func() time.Time
}

func newReporter(job *Job, emit EventFunc, now func() time.Time) *reporter {
	if emit == nil {
		emit = func(Event) {}
	}
	return &reporter{job: job, emit: emit, now: now}
}

func (r *reporter) stage(stage Stage, progress int) {
	r.send(Event{Stage: stage, Progress: progress, Message: stageMessages[stage]})
}

func (r *reporter) complete(filename string) {
	r.send(Event{Stage: StageComplete, Progress: progressComplete, Message: stageMessages[StageComplete], Filename: filename})
}

func (r *reporter) fail(err error) {
	r.send(Event{Stage: StageFailed, Message: stageMessages[StageFailed], Error: err.Error()})
}

// chunk maps recognized chunks onto the range between transcribing and writing.
func (r *reporter) chunk(done, total int) {
	if total <= 0 {
		return
	}
	span := progressWriting - progressTranscribing
	progress := progressTranscribing + span*done/total
	if progress >= progressWriting {
		progress = progressWriting - 1
	}
	r.send(Event{Stage: StageTranscribing, Progress: progress, Message: stageMessages[StageTranscribing]})
}

func (r *reporter) send(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished {
		return
	}
	if e.Stage != StageFailed {
		if e.Progress < r.last || (e.Progress == r.last && e.Stage == r.job.Stage) {
			return
		}
		r.last = e.Progress
		r.job.Progress = e.Progress
	}
	r.job.Stage = e.Stage
	r.finished = e.Terminal()

	e.JobID = r.job.ID
	e.Time = r.now()
	r.emit(e)
}
