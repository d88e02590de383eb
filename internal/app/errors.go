package service

import "errors"

// Sentinel kinds for request-level failures.
var (
	ErrTeamNotInEvent  = errors.New("team not found in event")
	ErrSameTeam        = errors.New("teams must be different")
	ErrEmptySchedule   = errors.New("schedule data required")
	ErrInvalidSchedule = errors.New("invalid schedule")
	ErrNotStarted      = errors.New("service not started")
)
