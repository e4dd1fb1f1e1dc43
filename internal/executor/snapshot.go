package executor

import (
	"os"
	"path/filepath"
)

// snapshotDir returns the set of entry names currently present in dir.
// A missing or unreadable directory yields an empty snapshot rather than an
// error; the diff then simply attributes nothing to the run.
func snapshotDir(dir string) map[string]struct{} {
	names := make(map[string]struct{})
	entries, err := os.ReadDir(dir)
	if err != nil {
		return names
	}
	for _, e := range entries {
		names[e.Name()] = struct{}{}
	}
	return names
}

// collectProduced merges the explicit-send list with the before/after
// directory diff into one de-duplicated, order-preserving path list.
// Explicit entries lead: when the snippet enumerates what to send, the diff
// is only a supplementary safety net. Diff entries come out in directory
// order (os.ReadDir sorts by name), joined onto the output directory.
func collectProduced(dir string, before map[string]struct{}, explicit []string) []string {
	out := []string{}
	seen := make(map[string]struct{})

	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	for _, p := range explicit {
		add(p)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return out
	}
	for _, e := range entries {
		if _, existed := before[e.Name()]; existed {
			continue
		}
		add(filepath.Join(dir, e.Name()))
	}
	return out
}
