package cache

import "github.com/pkg/errors"

// errWrap attaches a stack trace and a short message to a lower-level
// error, the way the rest of the module wraps I/O and codec failures.
func errWrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}
