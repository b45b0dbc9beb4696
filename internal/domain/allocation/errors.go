package allocation

import "errors"

// ErrIndexOutOfRange reports a swap index that names no allocation entry.
var ErrIndexOutOfRange = errors.New("allocation index out of range")
