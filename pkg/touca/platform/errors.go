package platform

import "errors"

// Error taxonomy mirrors spec §7: config_error, transport_error, and
// server_error all surface through the platform layer.
var (
	ErrConfig    = errors.New("config error")
	ErrTransport = errors.New("transport error")
	ErrServer    = errors.New("server error")
)
