// Package apierror maps domain errors onto wire codes shared by the push
// and pull transports, so both report the same failure the same way.
package apierror

import (
	"errors"
	"net/http"

	"github.com/fomoclub/liveroom/internal/domain"
)

// Code returns the stable machine-readable code for a room error.
func Code(err error) string {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, domain.ErrParticipantNotFound):
		return "participant_not_found"
	case errors.Is(err, domain.ErrHandRaiseNotFound):
		return "hand_raise_not_found"
	case errors.Is(err, domain.ErrSpeechNotFound):
		return "speech_not_found"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrAlreadyRaised):
		return "already_raised"
	case errors.Is(err, domain.ErrNotASpeaker):
		return "not_a_speaker"
	case errors.Is(err, domain.ErrAlreadySupported):
		return "already_supported"
	case errors.Is(err, domain.ErrSelfSupportForbidden):
		return "self_support_forbidden"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrRoomEnded):
		return "room_ended"
	case errors.Is(err, domain.ErrAlreadyStreaming):
		return "already_streaming"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	default:
		return "internal_error"
	}
}

// HTTPStatus maps a room error to the pull transport's status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrParticipantNotFound),
		errors.Is(err, domain.ErrHandRaiseNotFound),
		errors.Is(err, domain.ErrSpeechNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrAlreadyRaised),
		errors.Is(err, domain.ErrAlreadySupported),
		errors.Is(err, domain.ErrSelfSupportForbidden),
		errors.Is(err, domain.ErrRoomEnded),
		errors.Is(err, domain.ErrAlreadyStreaming):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrNotASpeaker),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrUsernameEmpty),
		errors.Is(err, domain.ErrUsernameTooLong):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
