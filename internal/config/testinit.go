package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// TestInit installs a configuration rooted in a per-test temp directory.
func TestInit(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	conf := fmt.Sprintf(`format_version = %q
working_dir = %q

[executor]
timeout_seconds = 5
max_output_length = 500
output_dir = %q

[dashboard]
port = "0"

[mcp]
port = "0"
`, ConfigFormatVersion, dir, filepath.Join(dir, "outputs"))

	path := filepath.Join(dir, "codefox.conf")
	if err := os.WriteFile(path, []byte(conf), 0644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	if err := LoadConfig(path); err != nil {
		t.Fatalf("loading test config: %v", err)
	}
}
