package coordtree

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwantia/coordtree/store"
)

// withSession dials address, hands the session to fn and closes it on every
// exit path. A close error is joined with the error of fn.
func withSession(ctx context.Context, dialer store.Dialer, address string, timeout time.Duration, fn func(s store.Store) error) (err error) {
	dialCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	s, err := dialer.Dial(dialCtx, address)
	if err != nil {
		return fmt.Errorf("failed to connect to '%s': %w", address, err)
	}

	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close session on '%s': %w", address, cerr))
		}
	}()

	return fn(store.WithTimeout(s, timeout))
}
