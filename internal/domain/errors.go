package domain

import "errors"

// Room operation errors. All are recoverable: a failed call leaves room
// state exactly as it was before the attempt.
var (
	ErrRoomNotFound        = errors.New("room not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrHandRaiseNotFound   = errors.New("hand raise not found")
	ErrSpeechNotFound      = errors.New("speech not found")

	ErrInvalidTransition = errors.New("invalid transition")
	ErrUnauthorized      = errors.New("unauthorized")

	ErrAlreadyRaised        = errors.New("hand already raised")
	ErrNotASpeaker          = errors.New("not a speaker")
	ErrAlreadySupported     = errors.New("speech already supported")
	ErrSelfSupportForbidden = errors.New("cannot support own speech")

	ErrRateLimited = errors.New("rate limited")

	ErrRoomEnded = errors.New("room ended")

	ErrAlreadyStreaming = errors.New("co-stream already active")
)
