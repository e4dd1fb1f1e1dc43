package dashboard

import (
	"context"

	"github.com/codefox-dev/codefox/internal/history"
)

// Store is the history access the dashboard needs. *history.Store satisfies
// it; tests substitute a fake.
type Store interface {
	List(ctx context.Context, f history.ListFilter) ([]*history.Record, int64, error)
	Get(ctx context.Context, id int64) (*history.Record, error)
	Statistics(ctx context.Context) (*history.Statistics, error)
}
