package mqtt

import "errors"

// ErrNotConnected is returned when publishing while the broker is unreachable.
var ErrNotConnected = errors.New("mqtt client not connected")
