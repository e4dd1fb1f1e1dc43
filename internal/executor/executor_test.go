package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCode(t *testing.T, code string) *Result {
	t.Helper()
	return Run(context.Background(), &Request{
		Code:      code,
		OutputDir: t.TempDir(),
	}, Options{Timeout: 10 * time.Second})
}

func TestRunCapturesPrint(t *testing.T) {
	res := runCode(t, "print(3 + 4)")
	require.True(t, res.Success)
	assert.Equal(t, "7\n", res.Stdout)
	assert.Empty(t, res.ErrorText)
	assert.Equal(t, []string{}, res.Files)
	assert.Greater(t, res.Elapsed, time.Duration(0))
}

func TestRunConsoleBindings(t *testing.T) {
	res := runCode(t, `
		console.log("a", 1);
		console.error("b");
		print("c", "d");
	`)
	require.True(t, res.Success)
	assert.Equal(t, "a 1\nb\nc d\n", res.Stdout)
}

func TestRunPrintRendersCompoundValues(t *testing.T) {
	res := runCode(t, `print({n: 1, s: "x"}); print([1, 2, 3]);`)
	require.True(t, res.Success)
	assert.Contains(t, res.Stdout, `"n":1`)
	assert.Contains(t, res.Stdout, "[1,2,3]")
}

func TestRunFailureKeepsPriorOutput(t *testing.T) {
	res := runCode(t, `
		print("step 1");
		print("step 2");
		boom();
	`)
	require.False(t, res.Success)
	assert.Equal(t, "step 1\nstep 2\n", res.Stdout)
	assert.Contains(t, res.ErrorText, "boom is not defined")
	assert.Equal(t, []string{}, res.Files)
}

func TestRunUncaughtThrow(t *testing.T) {
	res := runCode(t, `throw new Error("deliberate failure")`)
	require.False(t, res.Success)
	assert.Contains(t, res.ErrorText, "deliberate failure")
}

func TestRunErrorTextOnlyOnFailure(t *testing.T) {
	ok := runCode(t, "print('fine')")
	assert.True(t, ok.Success)
	assert.Empty(t, ok.ErrorText)

	bad := runCode(t, "nope()")
	assert.False(t, bad.Success)
	assert.NotEmpty(t, bad.ErrorText)
}

func TestRunFreshNamespacePerInvocation(t *testing.T) {
	dir := t.TempDir()
	req := func(code string) *Request {
		return &Request{Code: code, OutputDir: dir}
	}

	first := Run(context.Background(), req("globalThis.leak = 42; print(leak)"), Options{})
	require.True(t, first.Success)
	assert.Equal(t, "42\n", first.Stdout)

	second := Run(context.Background(), req("print(typeof leak)"), Options{})
	require.True(t, second.Success)
	assert.Equal(t, "undefined\n", second.Stdout)
}

func TestRunTimeout(t *testing.T) {
	start := time.Now()
	res := Run(context.Background(), &Request{
		Code:      `print("started"); while (true) {}`,
		OutputDir: t.TempDir(),
	}, Options{Timeout: 200 * time.Millisecond})
	elapsed := time.Since(start)

	require.False(t, res.Success)
	assert.Contains(t, res.ErrorText, "timed out after")
	assert.Empty(t, res.Stdout)
	assert.Equal(t, []string{}, res.Files)
	assert.Less(t, elapsed, 5*time.Second)
}

func TestRunNilRequest(t *testing.T) {
	res := Run(context.Background(), nil, Options{})
	require.False(t, res.Success)
	assert.NotEmpty(t, res.ErrorText)
}

func TestRunCollectsWrittenFiles(t *testing.T) {
	dir := t.TempDir()
	res := Run(context.Background(), &Request{
		Code:      `files.write(OUTPUT_DIR + "/data.txt", "payload")`,
		OutputDir: dir,
	}, Options{})
	require.True(t, res.Success)
	require.Equal(t, []string{filepath.Join(dir, "data.txt")}, res.Files)

	content, err := os.ReadFile(res.Files[0])
	require.NoError(t, err)
	assert.Equal(t, "payload", string(content))
}

func TestRunExplicitSendLeadsDiff(t *testing.T) {
	dir := t.TempDir()

	outside := filepath.Join(t.TempDir(), "outside.bin")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0644))

	res := Run(context.Background(), &Request{
		Code: `
			files.write(OUTPUT_DIR + "/a.txt", "a");
			FILES_TO_SEND.push("` + outside + `");
		`,
		OutputDir: dir,
	}, Options{})
	require.True(t, res.Success)
	require.Len(t, res.Files, 2)
	assert.Equal(t, outside, res.Files[0])
	assert.Equal(t, filepath.Join(dir, "a.txt"), res.Files[1])
}

func TestRunExplicitSendDeduplicatesDiff(t *testing.T) {
	dir := t.TempDir()
	res := Run(context.Background(), &Request{
		Code: `
			var p = OUTPUT_DIR + "/report.txt";
			files.write(p, "r");
			FILES_TO_SEND.push(p);
		`,
		OutputDir: dir,
	}, Options{})
	require.True(t, res.Success)
	assert.Equal(t, []string{filepath.Join(dir, "report.txt")}, res.Files)
}

func TestRunPreexistingFilesNotAttributed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.txt"), []byte("old"), 0644))

	res := Run(context.Background(), &Request{
		Code:      `files.write(OUTPUT_DIR + "/new.txt", "new")`,
		OutputDir: dir,
	}, Options{})
	require.True(t, res.Success)
	assert.Equal(t, []string{filepath.Join(dir, "new.txt")}, res.Files)
}

func TestRunImageURLsDefault(t *testing.T) {
	res := runCode(t, "print(IMAGE_URLS.length)")
	require.True(t, res.Success)
	assert.Equal(t, "0\n", res.Stdout)
}

func TestRunAuxBindings(t *testing.T) {
	res := Run(context.Background(), &Request{
		Code:      "print(IMAGE_URLS[0], EXTRA)",
		OutputDir: t.TempDir(),
		Aux: map[string]any{
			"IMAGE_URLS": []string{"https://example.com/i.png"},
			"EXTRA":      "bonus",
		},
	}, Options{})
	require.True(t, res.Success)
	assert.Equal(t, "https://example.com/i.png bonus\n", res.Stdout)
}

func TestRunOutputDirBinding(t *testing.T) {
	dir := t.TempDir()
	res := Run(context.Background(), &Request{
		Code:      "print(OUTPUT_DIR)",
		OutputDir: dir,
	}, Options{})
	require.True(t, res.Success)
	assert.Equal(t, dir+"\n", res.Stdout)
}

func TestModuleHash(t *testing.T) {
	res := runCode(t, `print(hash.sha256("abc"))`)
	require.True(t, res.Success)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad\n", res.Stdout)
}

func TestModuleCodec(t *testing.T) {
	res := runCode(t, `
		var enc = codec.base64Encode("hello");
		print(enc);
		print(codec.base64Decode(enc));
		var obj = codec.jsonParse('{"k": [1, 2]}');
		print(obj.k.length);
	`)
	require.True(t, res.Success)
	assert.Equal(t, "aGVsbG8=\nhello\n2\n", res.Stdout)
}

func TestModuleText(t *testing.T) {
	res := runCode(t, `
		print(text.match("^a+$", "aaa"));
		print(text.findAll("[0-9]+", "a1 b22 c333"));
		print(text.replace("o", "0", "foo"));
	`)
	require.True(t, res.Success)
	lines := strings.Split(strings.TrimSpace(res.Stdout), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "true", lines[0])
	assert.Contains(t, lines[1], "22")
	assert.Equal(t, "f00", lines[2])
}

func TestModuleErrorIsCatchable(t *testing.T) {
	res := runCode(t, `
		try {
			codec.base64Decode("%%%not base64%%%");
			print("no error");
		} catch (e) {
			print("caught");
		}
	`)
	require.True(t, res.Success)
	assert.Equal(t, "caught\n", res.Stdout)
}

func TestChartUnavailableWithoutOutputDir(t *testing.T) {
	res := Run(context.Background(), &Request{
		Code: "chart.figure()",
	}, Options{})
	require.False(t, res.Success)
	assert.Contains(t, res.ErrorText, "chart is not defined")
}
