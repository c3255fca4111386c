package sso

import (
	"errors"
	"fmt"

	ssooidctypes "github.com/aws/aws-sdk-go-v2/service/ssooidc/types"
)

// PollState is the outcome of one CreateToken poll.
type PollState int

const (
	PollPending PollState = iota
	PollApproved
	PollExpired
	PollDenied
	// PollFailed covers any other error; it is terminal.
	PollFailed
)

func (s PollState) String() string {
	switch s {
	case PollPending:
		return "pending"
	case PollApproved:
		return "approved"
	case PollExpired:
		return "expired"
	case PollDenied:
		return "denied"
	default:
		return "failed"
	}
}

// classifyPoll maps a CreateToken error to a poll state. slowDown is set
// when the server asked for a longer interval. The returned error is
// non-nil for terminal states.
func classifyPoll(err error) (state PollState, slowDown bool, terminal error) {
	if err == nil {
		return PollApproved, false, nil
	}

	var (
		pending *ssooidctypes.AuthorizationPendingException
		slow    *ssooidctypes.SlowDownException
		expired *ssooidctypes.ExpiredTokenException
		denied  *ssooidctypes.AccessDeniedException
	)
	switch {
	case errors.As(err, &pending):
		return PollPending, false, nil
	case errors.As(err, &slow):
		return PollPending, true, nil
	case errors.As(err, &expired):
		return PollExpired, false, fmt.Errorf("%w: %v", ErrLoginExpired, err)
	case errors.As(err, &denied):
		return PollDenied, false, fmt.Errorf("%w: %v", ErrLoginDenied, err)
	}
	return PollFailed, false, fmt.Errorf("create token: %w", err)
}
