// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/carrierauth/flow"
	"github.com/hashicorp/carrierauth/session"
)

// maxFormSize limits the body of the ReAuth and Logout forms
const maxFormSize = 64 << 10

type decideFunc func(ctx context.Context, req *http.Request, sess *session.Session) (flow.Action, flow.SessionUpdate)

type handler struct {
	controller *flow.Controller
	store      session.Store
	opts       options
}

func newHandler(op string, c *flow.Controller, s session.Store, opt ...Option) (*handler, error) {
	switch {
	case c == nil:
		return nil, fmt.Errorf("%s: controller is nil: %w", op, ErrNilParameter)
	case s == nil:
		return nil, fmt.Errorf("%s: session store is nil: %w", op, ErrNilParameter)
	}
	return &handler{
		controller: c,
		store:      s,
		opts:       getOpts(opt...),
	}, nil
}

// serve loads the session, asks decide what to do, saves the update and then
// performs the action.  The action is never performed if the update could
// not be saved.
func (h *handler) serve(op, method string, decide decideFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		setSecurityHeaders(w)
		if req.Method != method {
			w.Header().Set("Allow", method)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if req.Body != nil {
			req.Body = http.MaxBytesReader(w, req.Body, maxFormSize)
		}
		ctx := req.Context()

		sess, sid, err := h.opts.withCookie.Load(ctx, w, req, h.store, h.opts.withLogger)
		if err != nil {
			h.internalError(op, fmt.Errorf("unable to load session: %w", err), w, req)
			return
		}

		action, update := decide(ctx, req, sess)
		if err := h.save(ctx, w, sid, sess, action, update); err != nil {
			h.internalError(op, fmt.Errorf("unable to save session: %w", err), w, req)
			return
		}
		h.opts.withLogger.Debug("request handled", "op", op, "action", action.Type.String())
		h.respond(op, w, req, action)
	}
}

func (h *handler) save(ctx context.Context, w http.ResponseWriter, sid string, sess *session.Session, a flow.Action, u flow.SessionUpdate) error {
	switch {
	case u.Clear:
		if sid != "" {
			if err := h.store.Clear(ctx, sid); err != nil {
				return err
			}
		}
		h.opts.withCookie.Expire(w)
		return nil
	case u.IsZero():
		return nil
	}

	next := u.Apply(sess)
	// a new id whenever the user's authentication changes
	if sid == "" || a.Type == flow.ActionComplete || a.Type == flow.ActionReAuthSuccess {
		if sid != "" {
			if err := h.store.Clear(ctx, sid); err != nil {
				return err
			}
		}
		var err error
		if sid, err = NewSessionID(); err != nil {
			return err
		}
	}
	if err := h.store.Put(ctx, sid, next); err != nil {
		return err
	}
	h.opts.withCookie.Write(w, sid)
	return nil
}

func (h *handler) respond(op string, w http.ResponseWriter, req *http.Request, a flow.Action) {
	switch a.Type {
	case flow.ActionRedirectHome, flow.ActionComplete:
		redirect(w, req, h.opts.withHomePath)
	case flow.ActionRedirectToDiscovery:
		redirect(w, req, h.opts.withLoginPath)
	case flow.ActionRedirectToCarrierDiscovery, flow.ActionRedirectToAuthorization:
		redirect(w, req, a.URL)
	case flow.ActionReAuthSuccess:
		redirect(w, req, h.opts.withReAuthSuccessPath)
	case flow.ActionFail:
		e := a.Err
		if e == nil {
			e = flow.NewError(flow.KindInternal, op, errors.New("failed without an error"))
		}
		h.opts.withErrorResponse(e, w, req)
	default:
		h.internalError(op, fmt.Errorf("unknown action %d", a.Type), w, req)
	}
}

func (h *handler) internalError(op string, err error, w http.ResponseWriter, req *http.Request) {
	h.opts.withLogger.Error("request failed", "op", op, "error", err)
	h.opts.withErrorResponse(flow.NewError(flow.KindInternal, op, err), w, req)
}

// invalid rejects a request before it reaches the controller.  The session is
// left as it was.
func (h *handler) invalid(op string, err error) (flow.Action, flow.SessionUpdate) {
	h.opts.withLogger.Warn("invalid request", "op", op, "error", err)
	return flow.Fail(flow.NewError(flow.KindInvalidRequest, op, err)), flow.NoChange()
}

func redirect(w http.ResponseWriter, req *http.Request, u string) {
	code := http.StatusFound
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		code = http.StatusSeeOther
	}
	http.Redirect(w, req, u, code)
}
