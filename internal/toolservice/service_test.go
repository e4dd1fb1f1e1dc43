package toolservice

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codefox-dev/codefox/internal/config"
	"github.com/codefox-dev/codefox/internal/history"
)

type fakeHistory struct {
	records []*history.Record
}

func (f *fakeHistory) Insert(ctx context.Context, rec *history.Record) (int64, error) {
	f.records = append(f.records, rec)
	return int64(len(f.records)), nil
}

func newTestService(t *testing.T) (*Service, *fakeHistory) {
	t.Helper()
	config.TestInit(t)
	store := &fakeHistory{}
	s, err := CreateNewService(store)
	require.NoError(t, err)
	return s, store
}

func callTool(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = "execute_code"
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestExecuteCodeSuccess(t *testing.T) {
	s, store := newTestService(t)

	res, err := s.handleExecuteCode(context.Background(), callTool(map[string]any{
		"code":        "print(3 + 4)",
		"description": "adds numbers",
		"sender_id":   "alice",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "7")

	require.Len(t, store.records, 1)
	rec := store.records[0]
	assert.Equal(t, "alice", rec.SenderID)
	assert.Equal(t, "adds numbers", rec.Description)
	assert.True(t, rec.Success)
	assert.Equal(t, "7\n", rec.Output)
}

func TestExecuteCodeFailure(t *testing.T) {
	s, store := newTestService(t)

	res, err := s.handleExecuteCode(context.Background(), callTool(map[string]any{
		"code": "print('before'); boom()",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	text := resultText(t, res)
	assert.Contains(t, text, "boom is not defined")
	assert.Contains(t, text, "before")

	require.Len(t, store.records, 1)
	assert.False(t, store.records[0].Success)
	assert.Equal(t, defaultSenderID, store.records[0].SenderID)
	assert.Contains(t, store.records[0].ErrorText, "boom is not defined")
}

func TestExecuteCodeMissingCode(t *testing.T) {
	s, store := newTestService(t)

	res, err := s.handleExecuteCode(context.Background(), callTool(map[string]any{
		"description": "no code here",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "invalid arguments")
	assert.Empty(t, store.records)
}

func TestExecuteCodeBadArgumentShape(t *testing.T) {
	s, _ := newTestService(t)

	req := mcp.CallToolRequest{}
	req.Params.Name = "execute_code"
	req.Params.Arguments = "just a string"

	res, err := s.handleExecuteCode(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestExecuteCodeImageURLsBound(t *testing.T) {
	s, _ := newTestService(t)

	res, err := s.handleExecuteCode(context.Background(), callTool(map[string]any{
		"code":       "print(IMAGE_URLS.length, IMAGE_URLS[0])",
		"image_urls": []any{"https://example.com/a.png"},
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "1 https://example.com/a.png")
}

func TestExecuteCodeReportsProducedFiles(t *testing.T) {
	s, _ := newTestService(t)

	res, err := s.handleExecuteCode(context.Background(), callTool(map[string]any{
		"code": "files.write(OUTPUT_DIR + '/result.txt', 'data')",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "Produced file: result.txt")
}

func TestExecuteCodeWithoutHistoryStore(t *testing.T) {
	config.TestInit(t)
	s, err := CreateNewService(nil)
	require.NoError(t, err)

	res, err := s.handleExecuteCode(context.Background(), callTool(map[string]any{
		"code": "print('ok')",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
}

func TestHandleMCPRejectsBadJSON(t *testing.T) {
	s, _ := newTestService(t)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{not json"))
	s.Router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandleMCPToolsList(t *testing.T) {
	s, _ := newTestService(t)

	body := `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	s.Router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "execute_code")
}
