package assistant

import "fmt"

const (
	StageModel  = "model"
	StageAgent  = "agent"
	StageAnswer = "answer"
)

// OrchestrationError is any failure after the worker session is up:
// building the model or agent, or running the agent to completion.
type OrchestrationError struct {
	Stage string
	Err   error
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("orchestration %s: %v", e.Stage, e.Err)
}

func (e *OrchestrationError) Unwrap() error {
	return e.Err
}
