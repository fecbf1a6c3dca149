// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flow

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/carrierauth/oidc"
	"github.com/hashicorp/carrierauth/session"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/text/language"
)

var (
	ErrNilParameter = errors.New("nil parameter")
	ErrUpstream     = errors.New("carrier returned an error")
)

// Controller makes the login and step-up re-authentication decisions.  It's
// safe for concurrent use.
type Controller struct {
	idp            IdentityProvider
	logger         hclog.Logger
	scopes         []string
	stepUpACR      string
	stateTTL       time.Duration
	contextBinding bool
	uiLocales      []language.Tag
	nowFunc        func() time.Time
}

// NewController creates a Controller.  Supported options: WithLogger,
// WithScopes, WithStepUpACR, WithStateTTL, WithContextBinding, WithUILocales,
// WithNow
func NewController(idp IdentityProvider, opt ...Option) (*Controller, error) {
	const op = "flow.NewController"
	if idp == nil {
		return nil, fmt.Errorf("%s: identity provider is nil: %w", op, ErrNilParameter)
	}
	opts := getOpts(opt...)
	return &Controller{
		idp:            idp,
		logger:         opts.withLogger,
		scopes:         opts.withScopes,
		stepUpACR:      opts.withStepUpACR,
		stateTTL:       opts.withStateTTL,
		contextBinding: opts.withContextBinding,
		uiLocales:      opts.withUILocales,
		nowFunc:        opts.withNowFunc,
	}, nil
}

// Evaluate decides what to do with a callback request.  The first matching
// rule wins:
//
//  1. an error from the carrier fails the flow
//  2. an authenticated user without a pending step-up goes home
//  3. without a carrier (from the request or the session) the user is sent
//     to discovery
//  4. the request's state must match the session's pending State
//  5. without a code the user is sent to the carrier's authorization endpoint
//  6. a code is exchanged, completing a login or a step-up
//
// Every failure clears the session.
func (c *Controller) Evaluate(ctx context.Context, p CallbackParams, sess *session.Session) (Action, SessionUpdate) {
	const op = "Controller.Evaluate"
	if sess == nil {
		sess = &session.Session{}
	}

	if p.Error != "" {
		return c.fail(KindUpstream, op, fmt.Errorf("%w: %q: %s", ErrUpstream, p.Error, p.ErrorDescription))
	}

	if sess.CurrentUser != nil && sess.ReAuth == nil {
		return RedirectHome(), NoChange()
	}

	carrierID := p.CarrierID
	if carrierID == "" {
		carrierID = sess.CarrierID
	}
	if carrierID == "" {
		return RedirectToDiscovery(), NoChange()
	}

	switch {
	case p.State == "":
		return c.fail(KindMissingState, op, fmt.Errorf("state parameter is missing: %w", oidc.ErrResponseStateInvalid))
	case sess.State == nil:
		return c.fail(KindStateMismatch, op, fmt.Errorf("no authentication attempt is pending: %w", oidc.ErrResponseStateInvalid))
	case !sess.State.Matches(p.State):
		return c.fail(KindStateMismatch, op, fmt.Errorf("state parameter does not match the pending attempt: %w", oidc.ErrResponseStateInvalid))
	case sess.State.IsExpired(oidc.WithNow(c.now)):
		return c.fail(KindStateMismatch, op, fmt.Errorf("pending attempt expired: %w", oidc.ErrExpiredState))
	}

	pc, err := c.idp.Discover(ctx, carrierID)
	if err != nil {
		return c.fail(KindDiscovery, op, err)
	}

	if p.Code == "" {
		authURL, err := c.idp.AuthURL(ctx, pc, sess.State, p.LoginHintToken, c.authOptions(sess.ReAuth))
		if err != nil {
			return c.fail(KindInternal, op, err)
		}
		c.logger.Debug("redirecting to authorization", "op", op, "carrier", carrierID, "reauth", sess.ReAuth != nil)
		return RedirectToAuthorization(authURL), SessionUpdate{SetCarrierID: carrierID}
	}

	tk, err := c.idp.Exchange(ctx, pc, sess.State, p.State, p.Code, c.bindings(sess.ReAuth))
	switch {
	case errors.Is(err, oidc.ErrBindingMismatch):
		return c.fail(KindBindingMismatch, op, err)
	case err != nil:
		return c.fail(KindTokenExchange, op, err)
	case tk == nil:
		return c.fail(KindTokenExchange, op, fmt.Errorf("exchange returned no token: %w", oidc.ErrTokenExchangeFailed))
	}

	if sess.ReAuth != nil {
		if subtle.ConstantTimeCompare([]byte(tk.Subject), []byte(sess.ReAuth.BoundSubject)) != 1 {
			return c.fail(KindBindingMismatch, op, fmt.Errorf("step-up subject does not match: %w", oidc.ErrBindingMismatch))
		}
		c.logger.Info("step-up re-authentication confirmed", "op", op, "carrier", carrierID, "acr", tk.ACR)
		return ReAuthSuccess(), SessionUpdate{ConsumeReAuth: true, ConsumeState: true, SetCarrierID: carrierID}
	}

	claims, err := c.idp.UserInfo(ctx, pc, tk)
	if err != nil {
		return c.fail(KindUserInfo, op, err)
	}
	profile, err := session.NewUserProfile(claims)
	if err != nil {
		return c.fail(KindUserInfo, op, err)
	}
	c.logger.Info("login complete", "op", op, "carrier", carrierID)
	return Complete(profile), SessionUpdate{SetCurrentUser: profile, ConsumeState: true, SetCarrierID: carrierID}
}

// BeginLogin starts a login.  An authenticated user is sent home (abandoning
// any pending step-up), everyone else gets a new State and is sent to carrier
// discovery.  When the session has a cached carrier, discovery is skipped and
// the user goes straight to the carrier.
func (c *Controller) BeginLogin(ctx context.Context, sess *session.Session) (Action, SessionUpdate) {
	const op = "Controller.BeginLogin"
	if sess.IsAuthenticated() {
		return RedirectHome(), SessionUpdate{
			ConsumeReAuth: sess.ReAuth != nil,
			ConsumeState:  sess.State != nil,
		}
	}
	return c.begin(ctx, op, sess, nil)
}

// BeginReAuth starts a step-up re-authentication of the current user.  The
// contextToken is shown to the user by the carrier.  Requests without a
// current user or a context are rejected and the session is unchanged.
func (c *Controller) BeginReAuth(ctx context.Context, sess *session.Session, contextToken string) (Action, SessionUpdate) {
	const op = "Controller.BeginReAuth"
	if !sess.IsAuthenticated() {
		e := NewError(KindNotAuthenticated, op, errors.New("step-up requires an authenticated user"))
		c.logger.Warn("flow rejected", "op", op, "kind", e.Kind.String(), "error", e.Err)
		return Fail(e), NoChange()
	}
	contextToken = strings.TrimSpace(contextToken)
	if contextToken == "" {
		e := NewError(KindInvalidRequest, op, errors.New("step-up context is empty"))
		c.logger.Warn("flow rejected", "op", op, "kind", e.Kind.String(), "error", e.Err)
		return Fail(e), NoChange()
	}
	return c.begin(ctx, op, sess, &session.ReAuthContext{
		Context:      contextToken,
		ExpectedACR:  c.stepUpACR,
		BoundSubject: sess.CurrentUser.Subject,
	})
}

// Logout clears the session and sends the user home.
func (c *Controller) Logout() (Action, SessionUpdate) {
	return RedirectHome(), Clear()
}

func (c *Controller) begin(ctx context.Context, op string, sess *session.Session, reauth *session.ReAuthContext) (Action, SessionUpdate) {
	st, err := oidc.NewState(c.stateTTL, oidc.WithNow(c.now))
	if err != nil {
		return c.fail(KindInternal, op, err)
	}
	update := SessionUpdate{SetState: st, SetReAuth: reauth, ConsumeReAuth: reauth == nil}

	if sess != nil && sess.CarrierID != "" {
		carrierID := sess.CarrierID
		pc, err := c.idp.Discover(ctx, carrierID)
		if err == nil {
			authURL, err := c.idp.AuthURL(ctx, pc, st, "", c.authOptions(reauth))
			if err != nil {
				return c.fail(KindInternal, op, err)
			}
			return RedirectToAuthorization(authURL), update
		}
		// the cached carrier is only advisory
		c.logger.Warn("cached carrier discovery failed", "op", op, "carrier", carrierID, "error", err)
	}

	u, err := c.idp.CarrierDiscoveryURL(st)
	if err != nil {
		return c.fail(KindInternal, op, err)
	}
	return RedirectToCarrierDiscovery(u), update
}

func (c *Controller) authOptions(reauth *session.ReAuthContext) oidc.AuthOptions {
	if reauth != nil {
		return oidc.AuthOptions{
			Scopes:    []string{oidc.ScopeOpenID},
			ACRValues: reauth.ExpectedACR,
			Context:   reauth.Context,
			UILocales: c.uiLocales,
		}
	}
	return oidc.AuthOptions{Scopes: c.scopes, UILocales: c.uiLocales}
}

func (c *Controller) bindings(reauth *session.ReAuthContext) oidc.Bindings {
	if reauth == nil {
		return oidc.Bindings{}
	}
	b := oidc.Bindings{
		ACRValues: reauth.ExpectedACR,
		Subject:   reauth.BoundSubject,
	}
	if c.contextBinding {
		b.Context = reauth.Context
	}
	return b
}

func (c *Controller) fail(k Kind, op string, err error) (Action, SessionUpdate) {
	e := NewError(k, op, err)
	c.logger.Error("flow failed", "op", op, "kind", k.String(), "error", err)
	return Fail(e), Clear()
}

func (c *Controller) now() time.Time {
	if c.nowFunc != nil {
		return c.nowFunc()
	}
	return time.Now() // fallback to this default
}
