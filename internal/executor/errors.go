package executor

import "github.com/codefox-dev/codefox/internal/common/apperrors"

// Error definitions for the package.
// The public Run surface converts every failure into Result fields; these
// errors only cross internal helper boundaries.
var (
	// ErrExecutor is the base error for the package.
	ErrExecutor = apperrors.New("executor error")

	// ErrModuleUnavailable is returned when a capability module cannot be bound.
	// The runner recovers by omitting the binding from the namespace.
	ErrModuleUnavailable = ErrExecutor.New("capability module unavailable")
)
