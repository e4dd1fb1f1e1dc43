package history

import "time"

// Record is one persisted snippet execution.
type Record struct {
	ID          int64     `json:"id"`
	SenderID    string    `json:"sender_id"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	Output      string    `json:"output"`
	Success     bool      `json:"success"`
	ErrorText   string    `json:"error_text,omitempty"`
	FilePaths   []string  `json:"file_paths"`
	ElapsedMS   int64     `json:"elapsed_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// ListFilter narrows a history listing. Zero values mean "no filter".
type ListFilter struct {
	SenderID string // exact sender match
	Keyword  string // substring match against code and error text
	Success  *bool  // filter by outcome when set
	Page     int    // 1-based page number
	PageSize int    // rows per page
}

// Statistics summarizes the stored execution history.
type Statistics struct {
	TotalExecutions int64        `json:"total_executions"`
	SuccessCount    int64        `json:"success_count"`
	FailureCount    int64        `json:"failure_count"`
	SuccessRate     float64      `json:"success_rate"`
	DistinctSenders int64        `json:"distinct_senders"`
	Daily           []DailyCount `json:"daily"`
}

// DailyCount is the number of executions recorded on one day.
type DailyCount struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Count int64  `json:"count"`
}
