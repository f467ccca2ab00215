// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrEmptyQuestion is returned by Ask for a blank question.
	ErrEmptyQuestion = errors.New("question is empty")

	// ErrUnreachable means no response was received at all.
	ErrUnreachable = errors.New("server unreachable")

	// ErrMalformedResponse means a 2xx body had neither an answer nor an error.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrResponseTooLarge means the body exceeded the configured limit.
	ErrResponseTooLarge = errors.New("response too large")

	// ErrClosed is returned by Ask after Close.
	ErrClosed = errors.New("bridge closed")
)

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Status int

	// ServerMessage is the body's "error" field, if it had one.
	ServerMessage string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	if e.ServerMessage != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.ServerMessage)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, http.StatusText(e.Status))
}

// ServerError is an application-level error delivered in a 2xx body.
type ServerError struct {
	Message string
}

// Error implements the error interface.
func (e *ServerError) Error() string {
	return e.Message
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// User-facing messages.
const (
	MsgNetwork      = "Could not connect to the server. Please check your network connection."
	MsgBadRequest   = "The request was invalid. Please check your input."
	MsgUnauthorized = "You are not authorized. Please check your API key."
	MsgForbidden    = "Access denied."
	MsgServerError  = "A server error occurred. Please try again later."
	MsgUnavailable  = "The service is temporarily unavailable. Please try again later."
	MsgMalformed    = "Received an unexpected response from the server. Please try again."
	MsgTooLarge     = "The server response was too large to display."
	MsgTimeout      = "The server took too long to respond. Please try again."
	MsgUnexpected   = "An unexpected error occurred. Please try again."
)

// StatusMessage returns the default message for an HTTP status.
func StatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return MsgBadRequest
	case http.StatusUnauthorized:
		return MsgUnauthorized
	case http.StatusForbidden:
		return MsgForbidden
	case http.StatusInternalServerError:
		return MsgServerError
	case http.StatusServiceUnavailable:
		return MsgUnavailable
	default:
		return fmt.Sprintf("Something went wrong (status %d). Please try again.", status)
	}
}

// Classify turns a transport failure into the message shown to the user.
//
// A server-supplied message is preferred over the status default and is
// suffixed with the status so the user can tell failures apart. An
// application error in a 2xx body is shown verbatim.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Message
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.ServerMessage != "" {
			return fmt.Sprintf("%s (status %d)", statusErr.ServerMessage, statusErr.Status)
		}
		return StatusMessage(statusErr.Status)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return MsgTimeout
	case errors.Is(err, ErrUnreachable):
		return MsgNetwork
	case errors.Is(err, ErrMalformedResponse):
		return MsgMalformed
	case errors.Is(err, ErrResponseTooLarge):
		return MsgTooLarge
	default:
		return MsgUnexpected
	}
}
