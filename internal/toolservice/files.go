package toolservice

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// ProducedFile describes one file an execution produced, classified for
// delivery. Missing files are reported as warnings rather than dropped so
// the caller learns the delivery failed.
type ProducedFile struct {
	Path    string
	Name    string
	Kind    string // "image" or "file"
	Missing bool
}

// classifyFiles stats and content-sniffs each produced path. Classification
// prefers magic bytes and falls back to the extension for formats without a
// recognizable header, such as SVG.
func classifyFiles(paths []string) []ProducedFile {
	out := make([]ProducedFile, 0, len(paths))
	for _, p := range paths {
		f := ProducedFile{
			Path: p,
			Name: filepath.Base(p),
			Kind: "file",
		}
		if _, err := os.Stat(p); err != nil {
			f.Missing = true
			out = append(out, f)
			continue
		}
		if isImageFile(p) {
			f.Kind = "image"
		}
		out = append(out, f)
	}
	return out
}

func isImageFile(path string) bool {
	head := make([]byte, 261)
	fh, err := os.Open(path)
	if err == nil {
		n, _ := fh.Read(head)
		fh.Close()
		if filetype.IsImage(head[:n]) {
			return true
		}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		return true
	}
	return false
}
