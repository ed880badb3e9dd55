package domain

// Event types carried on the setup stream. A stream is a sequence of
// "progress" events terminated by exactly one "error" or "complete".
const (
	EventProgress = "progress"
	EventError    = "error"
	EventComplete = "complete"
)

// SetupEvent is one frame of the setup progress stream. It is serialized to
// JSON once, sent, and never persisted or replayed.
type SetupEvent struct {
	Type     string `json:"type"`
	Percent  int    `json:"percent"`
	Title    string `json:"title,omitempty"`
	Subtitle string `json:"subtitle,omitempty"`

	// Error fields
	Message      string `json:"message,omitempty"`
	Detail       string `json:"detail,omitempty"`
	ReturnToStep Screen `json:"returnToStep,omitempty"`
}

// ProgressEvent builds a progress frame.
func ProgressEvent(percent int, title, subtitle string) SetupEvent {
	return SetupEvent{Type: EventProgress, Percent: percent, Title: title, Subtitle: subtitle}
}

// ErrorEvent builds the terminal error frame.
func ErrorEvent(message, detail string, returnTo Screen) SetupEvent {
	return SetupEvent{Type: EventError, Message: message, Detail: detail, ReturnToStep: returnTo}
}

// CompleteEvent builds the terminal success frame.
func CompleteEvent() SetupEvent {
	return SetupEvent{Type: EventComplete, Percent: 100, Message: "Setup complete"}
}
