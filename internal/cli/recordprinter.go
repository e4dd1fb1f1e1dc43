package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/codefox-dev/codefox/internal/history"
)

var idLabel = color.New(color.FgHiMagenta, color.Bold)
var senderColor = color.New(color.FgCyan)
var codeColor = color.New(color.FgHiWhite)
var outputColor = color.New(color.FgWhite, color.Faint)
var fileColor = color.New(color.FgBlue)

const recordIndent = "    "

// printRecord renders one execution record with color-coded sections.
func printRecord(rec *history.Record) {
	idLabel.Printf("\n#%d", rec.ID)
	fmt.Printf("  %s  ", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	senderColor.Printf("%s", rec.SenderID)
	if rec.Success {
		okLabel.Printf("  ok")
	} else {
		errorLabel.Printf("  failed")
	}
	fmt.Printf("  %dms\n", rec.ElapsedMS)

	if rec.Description != "" {
		fmt.Println(recordIndent + rec.Description)
	}

	codeColor.Println(indentMultiline(rec.Code, recordIndent))

	if rec.Output != "" {
		outputColor.Println(indentMultiline(strings.TrimRight(rec.Output, "\n"), recordIndent))
	}
	if rec.ErrorText != "" {
		errorLabel.Println(indentMultiline(rec.ErrorText, recordIndent))
	}
	for _, p := range rec.FilePaths {
		fileColor.Println(recordIndent + "file: " + p)
	}
}

// indentMultiline prefixes every line of a multiline string.
func indentMultiline(text, indent string) string {
	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = indent + lines[i]
	}
	return strings.Join(lines, "\n")
}
