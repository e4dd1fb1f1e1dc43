package toolservice

import (
	"strings"

	"github.com/codefox-dev/codefox/internal/executor"
)

const truncationMarker = "\n... (output truncated)"

// formatReply renders an execution result as the text returned to the model.
// Failures keep the captured output that preceded the error so the model can
// see how far the snippet got before fixing it.
func formatReply(res *executor.Result, files []ProducedFile, maxLen int) string {
	var b strings.Builder

	if res.Success {
		out := truncateOutput(res.Stdout, maxLen)
		if out == "" {
			b.WriteString("Code executed successfully with no output.")
		} else {
			b.WriteString("Code executed successfully. Output:\n")
			b.WriteString(out)
		}
	} else {
		b.WriteString("Code execution failed:\n")
		b.WriteString(truncateOutput(res.ErrorText, maxLen))
		if res.Stdout != "" {
			b.WriteString("\n\nOutput before the failure:\n")
			b.WriteString(truncateOutput(res.Stdout, maxLen))
		}
		b.WriteString("\n\nFix the code and call execute_code again.")
	}

	for _, f := range files {
		b.WriteString("\n")
		switch {
		case f.Missing:
			b.WriteString("Warning: produced file could not be delivered (missing): " + f.Path)
		case f.Kind == "image":
			b.WriteString("Produced image: " + f.Name + " (available at /files/" + f.Name + ")")
		default:
			b.WriteString("Produced file: " + f.Name + " (available at /files/" + f.Name + ")")
		}
	}

	return b.String()
}

// truncateOutput cuts s to at most maxLen runes and appends a marker when
// anything was dropped. maxLen <= 0 disables truncation.
func truncateOutput(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + truncationMarker
}
