package space

import "errors"

var (
	ErrSpaceLaunch      = errors.New("space launch failed")
	ErrNotIdle          = errors.New("agent is not idle")
	ErrNotParticipating = errors.New("agent is not participating in a space")
	ErrApprovalTimeout  = errors.New("timed out waiting for speaker approval")
	ErrHostingDisabled  = errors.New("session hosting is disabled")
	ErrShuttingDown     = errors.New("space manager is shutting down")
	ErrSpeakerFinalize  = errors.New("failed to become speaker")
	ErrEmptySpaceID     = errors.New("space id is required")
)
