package executor

import (
	"time"
)

// Request describes one snippet execution. It is created per invocation and
// never mutated by the engine.
type Request struct {
	Code      string         // snippet source, assumed syntactically well-formed
	OutputDir string         // directory snippets write artifacts into
	Aux       map[string]any // auxiliary values bound into the namespace, e.g. IMAGE_URLS
}

// Result is the structured outcome of one snippet execution.
// ErrorText is set if and only if Success is false. Stdout holds everything
// the snippet wrote up to the point of completion or failure.
type Result struct {
	Success   bool          `json:"success"`
	Stdout    string        `json:"stdout"`
	ErrorText string        `json:"error,omitempty"`
	Files     []string      `json:"files"`
	Elapsed   time.Duration `json:"elapsed"`
}

// sendList is the mutable explicit-send collection exposed to snippets as
// FILES_TO_SEND. Paths pushed here are delivered regardless of whether they
// live inside the output directory.
type sendList struct {
	paths []string
}

func (l *sendList) push(paths ...string) int {
	l.paths = append(l.paths, paths...)
	return len(l.paths)
}

func (l *sendList) entries() []string {
	return l.paths
}
