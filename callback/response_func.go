// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"net/http"

	"github.com/hashicorp/carrierauth/flow"
)

// ErrorResponseFunc is used by the handlers to create a http response when a
// flow fails.  The security headers have already been set.
//
// e.Err holds the details of the failure and must not be sent to the
// browser; e.Kind.PublicMessage() is safe to send.
type ErrorResponseFunc func(e *flow.Error, w http.ResponseWriter, req *http.Request)

// DefaultErrorResponse writes StatusCode(e.Kind) with the kind's public
// message as text/plain.
func DefaultErrorResponse(e *flow.Error, w http.ResponseWriter, _ *http.Request) {
	k := flow.KindUnknown
	if e != nil {
		k = e.Kind
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(StatusCode(k))
	_, _ = w.Write([]byte(k.PublicMessage() + "\n"))
}

// StatusCode maps a failure kind to a http status.
func StatusCode(k flow.Kind) int {
	switch k {
	case flow.KindInvalidRequest, flow.KindMissingState, flow.KindStateMismatch:
		return http.StatusBadRequest
	case flow.KindUpstream, flow.KindNotAuthenticated:
		return http.StatusUnauthorized
	case flow.KindBindingMismatch:
		return http.StatusForbidden
	case flow.KindDiscovery, flow.KindTokenExchange, flow.KindUserInfo:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func setSecurityHeaders(w http.ResponseWriter) {
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Strict-Transport-Security", "max-age=5184000")
}
