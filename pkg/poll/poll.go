// Package poll implements cooperative retry: evaluate a condition at a fixed
// interval until it holds or a wall-clock deadline elapses.
package poll

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"k8s.io/apimachinery/pkg/util/wait"
)

// Condition reports whether polling may stop. An error aborts polling
// immediately and propagates unchanged.
type Condition func(ctx context.Context) (bool, error)

// Until polls cond every interval until it returns true, it returns an error,
// the timeout elapses, or ctx is cancelled. A deadline hit yields an error
// carrying the elapsed bound, never a silent return.
func Until(ctx context.Context, interval, timeout time.Duration, cond Condition) error {
	err := wait.PollUntilContextTimeout(ctx, interval, timeout, true, wait.ConditionWithContextFunc(cond))
	if err == nil {
		return nil
	}
	if wait.Interrupted(err) {
		return errors.Errorf("the condition not reached within %s", timeout)
	}
	return err
}
