package av

import "github.com/pkg/errors"

// ErrUndersizedBuffer is returned when an input buffer is shorter than the
// structure it must hold.
var ErrUndersizedBuffer = errors.New("undersized buffer")
