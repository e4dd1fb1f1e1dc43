package toolservice

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codefox-dev/codefox/internal/executor"
)

func TestFormatReplySuccess(t *testing.T) {
	res := &executor.Result{Success: true, Stdout: "7\n", Files: []string{}}
	reply := formatReply(res, nil, 3000)
	assert.Contains(t, reply, "executed successfully")
	assert.Contains(t, reply, "7\n")
}

func TestFormatReplySuccessNoOutput(t *testing.T) {
	res := &executor.Result{Success: true, Stdout: "", Files: []string{}}
	reply := formatReply(res, nil, 3000)
	assert.Contains(t, reply, "no output")
}

func TestFormatReplyFailureKeepsPartialOutput(t *testing.T) {
	res := &executor.Result{
		Success:   false,
		Stdout:    "step 1 done\n",
		ErrorText: "ReferenceError: boom is not defined",
	}
	reply := formatReply(res, nil, 3000)
	assert.Contains(t, reply, "execution failed")
	assert.Contains(t, reply, "ReferenceError")
	assert.Contains(t, reply, "step 1 done")
	assert.Contains(t, reply, "Fix the code")
	// error comes before the pre-failure output
	assert.Less(t, strings.Index(reply, "ReferenceError"), strings.Index(reply, "step 1 done"))
}

func TestFormatReplyTruncation(t *testing.T) {
	res := &executor.Result{Success: true, Stdout: strings.Repeat("x", 50)}
	reply := formatReply(res, nil, 10)
	assert.Contains(t, reply, truncationMarker)
	assert.NotContains(t, reply, strings.Repeat("x", 11))
}

func TestFormatReplyFiles(t *testing.T) {
	res := &executor.Result{Success: true, Stdout: "done\n"}
	files := []ProducedFile{
		{Path: "/out/chart.svg", Name: "chart.svg", Kind: "image"},
		{Path: "/out/data.csv", Name: "data.csv", Kind: "file"},
		{Path: "/out/gone.txt", Name: "gone.txt", Kind: "file", Missing: true},
	}
	reply := formatReply(res, files, 3000)
	assert.Contains(t, reply, "Produced image: chart.svg")
	assert.Contains(t, reply, "Produced file: data.csv")
	assert.Contains(t, reply, "could not be delivered (missing): /out/gone.txt")
}

func TestTruncateOutput(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"under limit", "short", 10, "short"},
		{"at limit", "exact", 5, "exact"},
		{"over limit", "toolong", 4, "tool" + truncationMarker},
		{"disabled", "anything", 0, "anything"},
		{"multibyte safe", "héllo wörld", 6, "héllo " + truncationMarker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, truncateOutput(tt.in, tt.maxLen))
		})
	}
}
