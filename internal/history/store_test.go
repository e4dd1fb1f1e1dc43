package history

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputRoundTrip(t *testing.T) {
	tests := []string{
		"",
		"hello\n",
		"7\nworld\n",
		"large " + string(make([]byte, 4096)),
	}
	for _, in := range tests {
		out, err := decompressOutput(compressOutput(in))
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestDecompressRejectsGarbage(t *testing.T) {
	_, err := decompressOutput([]byte("not snappy data"))
	assert.Error(t, err)
}

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name      string
		filter    ListFilter
		wantWhere string
		wantArgs  int
	}{
		{
			name:      "empty",
			filter:    ListFilter{},
			wantWhere: "",
			wantArgs:  0,
		},
		{
			name:      "sender only",
			filter:    ListFilter{SenderID: "user-1"},
			wantWhere: " WHERE sender_id = $1",
			wantArgs:  1,
		},
		{
			name:      "keyword only",
			filter:    ListFilter{Keyword: "panic"},
			wantWhere: " WHERE (code ILIKE $1 OR error_text ILIKE $1)",
			wantArgs:  1,
		},
		{
			name:      "all filters",
			filter:    ListFilter{SenderID: "user-1", Keyword: "sum", Success: boolPtr(false)},
			wantWhere: " WHERE sender_id = $1 AND (code ILIKE $2 OR error_text ILIKE $2) AND success = $3",
			wantArgs:  3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildFilter(tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Len(t, args, tt.wantArgs)
		})
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "plain", escapeLike("plain"))
	assert.Equal(t, "100\\%", escapeLike("100%"))
	assert.Equal(t, "a\\_b\\\\c", escapeLike("a_b\\c"))
}

func boolPtr(b bool) *bool { return &b }

// Integration tests below require a reachable PostgreSQL instance.

func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("CODEFOX_TEST_DSN")
	if dsn == "" {
		t.Skip("CODEFOX_TEST_DSN not set")
	}
	s, err := NewStore(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = s.db.Exec("DELETE FROM executions WHERE sender_id LIKE 'test-%'")
		s.Close()
	})
	return s
}

func TestInsertAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.Insert(ctx, &Record{
		SenderID:  "test-sender",
		Code:      "print(7)",
		Output:    "7\n",
		Success:   true,
		FilePaths: []string{"/tmp/out/chart.svg"},
		ElapsedMS: 12,
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	rec, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "print(7)", rec.Code)
	assert.Equal(t, "7\n", rec.Output)
	assert.True(t, rec.Success)
	assert.Equal(t, []string{"/tmp/out/chart.svg"}, rec.FilePaths)
	assert.False(t, rec.CreatedAt.IsZero())
}

func TestGetMissing(t *testing.T) {
	s := testStore(t)
	_, err := s.Get(context.Background(), -1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFiltersAndPaging(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rec := &Record{
			SenderID: "test-lister",
			Code:     "let x = 1",
			Output:   "ok",
			Success:  i != 1,
		}
		if !rec.Success {
			rec.ErrorText = "boom at line 1"
		}
		_, err := s.Insert(ctx, rec)
		require.NoError(t, err)
	}

	records, total, err := s.List(ctx, ListFilter{SenderID: "test-lister"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, records, 3)

	failed := false
	records, total, err = s.List(ctx, ListFilter{SenderID: "test-lister", Success: &failed})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, records, 1)
	assert.Contains(t, records[0].ErrorText, "boom")

	records, total, err = s.List(ctx, ListFilter{SenderID: "test-lister", Keyword: "boom"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	records, _, err = s.List(ctx, ListFilter{SenderID: "test-lister", Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestStatistics(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Insert(ctx, &Record{SenderID: "test-stats", Code: "1", Output: "1", Success: true})
	require.NoError(t, err)

	st, err := s.Statistics(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, st.TotalExecutions, int64(1))
	assert.Equal(t, st.TotalExecutions, st.SuccessCount+st.FailureCount)
	assert.NotEmpty(t, st.Daily)
}

func TestNewStoreRequiresDSN(t *testing.T) {
	_, err := NewStore(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoDatabase)
}
