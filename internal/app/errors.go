package app

import (
	"context"
	"errors"

	"paraiso_verde/internal/domain"
)

// UserError carries the text a page should show for a failed step while
// keeping the cause for logs.
type UserError struct {
	Msg string
	Err error
}

func (e *UserError) Error() string { return e.Msg }
func (e *UserError) Unwrap() error { return e.Err }

// upstreamMessager is implemented by API errors that carry the API's own text.
type upstreamMessager interface{ UserMessage() string }

// Message picks the visitor-facing text for err: form and step errors as they
// are, the API's own message when it sent one, otherwise fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var fe *FormError
	if errors.As(err, &fe) {
		return fe.Msg
	}
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Msg
	}
	for _, s := range []error{
		domain.ErrMissingDates, domain.ErrInvalidStay, domain.ErrNoVoucher,
		domain.ErrNotLoggedIn, domain.ErrNoClient, domain.ErrBadCredential,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	var um upstreamMessager
	if errors.As(err, &um) {
		if m := um.UserMessage(); m != "" {
			return m
		}
		return fallback
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.MsgConnection
	}
	return fallback
}

func wrapStep(msg string, err error) error {
	return &UserError{Msg: Message(err, msg), Err: err}
}

// StatusOf reports the upstream HTTP status behind err, 0 when there is none.
func StatusOf(err error) int {
	var hs interface{ HTTPStatus() int }
	if errors.As(err, &hs) {
		return hs.HTTPStatus()
	}
	return 0
}
