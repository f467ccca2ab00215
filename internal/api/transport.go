// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"strings"
)

// Transport sends one question and returns the answer.
//
// Failures must be reported as errors Classify understands: ErrUnreachable
// when no response arrived, *StatusError for non-2xx responses, *ServerError
// for an error field in a 2xx body, and ErrMalformedResponse otherwise.
type Transport interface {
	Ask(ctx context.Context, question string) (string, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, question string) (string, error)

// Ask implements Transport.
func (f TransportFunc) Ask(ctx context.Context, question string) (string, error) {
	return f(ctx, question)
}

// Kind names a Transport implementation.
type Kind string

const (
	KindHTTP   Kind = "http"
	KindGemini Kind = "gemini"
)

// ParseKind converts a config string to a Kind. Empty means http.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindHTTP, "":
		return KindHTTP, nil
	case KindGemini:
		return KindGemini, nil
	default:
		return "", fmt.Errorf("unknown transport %q (want http or gemini)", s)
	}
}

// askRequest is the outbound body.
type askRequest struct {
	Question string `json:"question"`
}

// askResponse is the inbound body. Pointers distinguish an absent field from
// an empty one.
type askResponse struct {
	Answer *string `json:"answer,omitempty"`
	Error  *string `json:"error,omitempty"`
}
