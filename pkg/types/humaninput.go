package types

// HumanInputAction is the terminal decision a human makes on an input request.
type HumanInputAction string

const (
	// HumanInputDone indicates the human completed the requested manual step.
	HumanInputDone HumanInputAction = "done"

	// HumanInputAbort indicates the human rejected the request; the task is cancelled.
	HumanInputAbort HumanInputAction = "abort"
)

// HumanInputRequest asks a human to perform a manual step (solve a captcha,
// enter credentials, ...). At most one request is outstanding per task.
type HumanInputRequest struct {
	RequestID string
	Prompt    string
}

// HumanInputResponse answers an outstanding HumanInputRequest. Responses are
// correlated by RequestID; responses for unknown requests are ignored.
type HumanInputResponse struct {
	RequestID string
	Action    HumanInputAction
}

// IsDone returns true if the human completed the manual step.
func (r *HumanInputResponse) IsDone() bool {
	return r.Action == HumanInputDone
}
