package pipeline

import (
	"log/slog"

	"github.com/sendwell/cloud-setup/domain"
)

// streamBuffer keeps the detached pipeline task from blocking on a slow or
// disconnected consumer. Events are small and infrequent, so the buffer is
// generous relative to the event count of one run.
const streamBuffer = 100

// Stream is the one-way event channel between the orchestrator (sole
// producer) and the HTTP response writer (sole consumer). It carries progress
// events terminated by exactly one error or complete event, after which the
// channel is closed. There is no buffering of history and no replay: a
// disconnected client loses all progress and must start a new run.
type Stream struct {
	ch       chan domain.SetupEvent
	finished bool
}

// NewStream creates an open stream.
func NewStream() *Stream {
	return &Stream{ch: make(chan domain.SetupEvent, streamBuffer)}
}

// Events returns the read end of the stream.
func (s *Stream) Events() <-chan domain.SetupEvent {
	return s.ch
}

// Progress emits a progress frame. Frames sent after the terminal event are
// dropped.
func (s *Stream) Progress(percent int, title, subtitle string) {
	s.send(domain.ProgressEvent(percent, title, subtitle))
}

// Fail emits the terminal error frame and closes the stream.
func (s *Stream) Fail(message, detail string, returnTo domain.Screen) {
	s.send(domain.ErrorEvent(message, detail, returnTo))
	s.close()
}

// Complete emits the terminal complete frame and closes the stream.
func (s *Stream) Complete() {
	s.send(domain.CompleteEvent())
	s.close()
}

func (s *Stream) send(ev domain.SetupEvent) {
	if s.finished {
		slog.Warn("Event dropped after stream terminated",
			"layer", "stream",
			"event_type", ev.Type)
		return
	}
	s.ch <- ev
}

func (s *Stream) close() {
	if s.finished {
		return
	}
	s.finished = true
	close(s.ch)
}
