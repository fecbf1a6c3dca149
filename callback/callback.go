// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/carrierauth/flow"
	"github.com/hashicorp/carrierauth/session"
)

// Callback creates the handler for the relying party's redirect URL.  Carrier
// discovery and the carrier's authorization endpoint both redirect the
// browser here.
//
// Supported options: WithLogger, WithHomePath, WithLoginPath,
// WithReAuthSuccessPath, WithCookieName, WithInsecureCookies,
// WithErrorResponse
func Callback(c *flow.Controller, s session.Store, opt ...Option) (http.HandlerFunc, error) {
	const op = "callback.Callback"
	h, err := newHandler(op, c, s, opt...)
	if err != nil {
		return nil, err
	}
	return h.serve(op, http.MethodGet, func(ctx context.Context, req *http.Request, sess *session.Session) (flow.Action, flow.SessionUpdate) {
		p, err := ParseParams(req)
		if err != nil {
			return h.invalid(op, err)
		}
		return h.controller.Evaluate(ctx, p, sess)
	}), nil
}

// Login creates the handler that starts a login.  Supports the same options
// as Callback.
func Login(c *flow.Controller, s session.Store, opt ...Option) (http.HandlerFunc, error) {
	const op = "callback.Login"
	h, err := newHandler(op, c, s, opt...)
	if err != nil {
		return nil, err
	}
	return h.serve(op, http.MethodGet, func(ctx context.Context, _ *http.Request, sess *session.Session) (flow.Action, flow.SessionUpdate) {
		return h.controller.BeginLogin(ctx, sess)
	}), nil
}

// ReAuth creates the handler that starts a step-up re-authentication.  It
// expects a POSTed form with a "context" value that the carrier shows the
// user (for example "Transfer $500 to Bob").  Supports the same options as
// Callback.
func ReAuth(c *flow.Controller, s session.Store, opt ...Option) (http.HandlerFunc, error) {
	const op = "callback.ReAuth"
	h, err := newHandler(op, c, s, opt...)
	if err != nil {
		return nil, err
	}
	return h.serve(op, http.MethodPost, func(ctx context.Context, req *http.Request, sess *session.Session) (flow.Action, flow.SessionUpdate) {
		if err := req.ParseForm(); err != nil {
			return h.invalid(op, fmt.Errorf("unable to parse form: %w: %w", err, ErrInvalidRequest))
		}
		v, err := queryValue(req.PostForm, formContext)
		if err != nil {
			return h.invalid(op, err)
		}
		return h.controller.BeginReAuth(ctx, sess, v)
	}), nil
}

// Logout creates the handler that clears the session.  It expects a POST.
// Supports the same options as Callback.
func Logout(c *flow.Controller, s session.Store, opt ...Option) (http.HandlerFunc, error) {
	const op = "callback.Logout"
	h, err := newHandler(op, c, s, opt...)
	if err != nil {
		return nil, err
	}
	return h.serve(op, http.MethodPost, func(_ context.Context, _ *http.Request, _ *session.Session) (flow.Action, flow.SessionUpdate) {
		return h.controller.Logout()
	}), nil
}
