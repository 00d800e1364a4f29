package engine

import (
	"fmt"
	"strings"
)

// Severity classifies a feedback line.
type Severity int

const (
	SeverityMessage Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityMessage:
		return "message"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Feedback receives everything the engine has to say. Recoverable problems
// are reported here as SeverityError and never returned to the caller.
type Feedback func(severity Severity, msg string)

// Discard drops all feedback.
func Discard(Severity, string) {}

// feedbackWriter turns line-oriented writes into feedback calls, so the
// generator executor can report through the same channel.
type feedbackWriter struct {
	severity Severity
	feedback Feedback
}

func (w feedbackWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line != "" {
			w.feedback(w.severity, line)
		}
	}
	return len(p), nil
}
