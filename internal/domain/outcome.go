package domain

import "fmt"

type OutcomeKind string

const (
	OutcomeSuccess           OutcomeKind = "success"
	OutcomeConnectTimeout    OutcomeKind = "connect_timeout"
	OutcomeTransportError    OutcomeKind = "transport_error"
	OutcomeRemoteNonZeroExit OutcomeKind = "remote_nonzero_exit"
)

// Outcome is the terminal state of one session. Once a session reports an
// outcome it produces no further lines.
type Outcome struct {
	Kind     OutcomeKind
	ExitCode int
	Err      error
}

func Success() Outcome {
	return Outcome{Kind: OutcomeSuccess}
}

func ConnectTimeout(err error) Outcome {
	return Outcome{Kind: OutcomeConnectTimeout, Err: err}
}

func TransportError(err error) Outcome {
	return Outcome{Kind: OutcomeTransportError, Err: err}
}

func RemoteNonZeroExit(code int) Outcome {
	return Outcome{Kind: OutcomeRemoteNonZeroExit, ExitCode: code}
}

func (o Outcome) Failed() bool {
	return o.Kind != OutcomeSuccess
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeSuccess:
		return "success"
	case OutcomeConnectTimeout:
		return "connect timeout"
	case OutcomeRemoteNonZeroExit:
		return fmt.Sprintf("remote exited with code %d", o.ExitCode)
	case OutcomeTransportError:
		if o.Err != nil {
			return fmt.Sprintf("transport error: %v", o.Err)
		}
		return "transport error"
	default:
		return string(o.Kind)
	}
}

// NodeResult pairs a node with its terminal outcome for the invocation
// summary.
type NodeResult struct {
	Node    NodeID
	Outcome Outcome
}
