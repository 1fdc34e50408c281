package worker

import "fmt"

const (
	StageSpawn     = "spawn"
	StageHandshake = "handshake"
	StageDiscover  = "discover"
)

// SubprocessError reports a worker that failed to start or to complete the
// handshake and tool discovery.
type SubprocessError struct {
	Stage string
	Err   error
}

func (e *SubprocessError) Error() string {
	return fmt.Sprintf("worker %s failed: %v", e.Stage, e.Err)
}

func (e *SubprocessError) Unwrap() error {
	return e.Err
}
