package routing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/scriptforge/internal/core/domain"
)

var (
	// ErrStopped is returned when the operation's stop switch fired.
	ErrStopped = errors.New("stopped")

	// ErrNoCredentials is returned when neither the configured credentials nor
	// an ambient fallback credential exist.
	ErrNoCredentials = errors.New("no API credentials configured")

	// ErrPoolsExhausted is returned after every pool, model and credential failed
	// with a retryable error.
	ErrPoolsExhausted = errors.New("all credential pools exhausted")
)

// DispatchError is the terminal failure of one dispatch.
type DispatchError struct {
	Kind     ErrorKind
	Category domain.TaskCategory
	Attempts int

	// RetryAfter hints how long a caller should wait before starting a new
	// operation. Only set for KindExhausted.
	RetryAfter time.Duration

	Err error
}

func (e *DispatchError) Error() string {
	switch e.Kind {
	case KindExhausted:
		return fmt.Sprintf("dispatch %s: %v after %d attempts, try again later", e.Category, e.Err, e.Attempts)
	case KindCancelled:
		return fmt.Sprintf("dispatch %s: %v", e.Category, e.Err)
	default:
		return fmt.Sprintf("dispatch %s (%s): %v", e.Category, e.Kind, e.Err)
	}
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// KindOf extracts the dispatch kind from an error chain. Errors that did not
// come out of the dispatcher are Fatal.
func KindOf(err error) ErrorKind {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Kind
	}
	if errors.Is(err, ErrStopped) {
		return KindCancelled
	}
	return KindFatal
}

// IsStopped reports whether err is a user-requested stop.
func IsStopped(err error) bool {
	return KindOf(err) == KindCancelled
}

// Interrupted returns a Cancelled DispatchError once ctx is done. Callers
// chaining several dispatches use it between stages.
func Interrupted(ctx context.Context, category domain.TaskCategory) error {
	if ctx.Err() == nil {
		return nil
	}
	return &DispatchError{Kind: KindCancelled, Category: category, Err: ErrStopped}
}
