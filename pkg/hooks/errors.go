package hooks

import (
	"fmt"

	"github.com/glorpus-work/nupack/pkg/errutils"
)

// ErrHookTypeEmpty is returned when a hook type is empty.
var ErrHookTypeEmpty = fmt.Errorf("hook type cannot be empty")

// ErrUnsupportedHookType is returned for hook types other than pre-update
// and post-update.
func ErrUnsupportedHookType(hookType HookType) error {
	return errutils.Wrapf(errutils.ErrHookExecution, "unsupported hook type: %s", hookType)
}
