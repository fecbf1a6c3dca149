// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/carrierauth/sdk/id"
	"github.com/hashicorp/carrierauth/session"
	"github.com/hashicorp/go-hclog"
)

// DefaultCookieName is the name of the session id cookie.
const DefaultCookieName = "carrierauth_session"

const sessionIDPrefix = "sess"

// SessionCookie reads and writes the browser's session id.  The id is only a
// key into a session.Store; it carries nothing else.
type SessionCookie struct {
	Name string
	Path string

	// Insecure drops the Secure attribute, which is only appropriate for
	// local development over plain http.
	Insecure bool
}

// NewSessionID returns a new random session id.
func NewSessionID() (string, error) {
	const op = "callback.NewSessionID"
	sid, err := id.New(sessionIDPrefix)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return sid, nil
}

// Read returns the request's session id.  Missing and malformed ids are
// reported as not found.
func (c SessionCookie) Read(req *http.Request) (string, bool) {
	ck, err := req.Cookie(c.name())
	if err != nil {
		return "", false
	}
	if !id.Valid(sessionIDPrefix, ck.Value) {
		return "", false
	}
	return ck.Value, true
}

// Load returns the request's session and its id.  Without a session id the
// Session is empty and the id is "".  A stored session that can't be decoded
// is cleared, its cookie expired, and the request continues with an empty
// Session and no id.
func (c SessionCookie) Load(ctx context.Context, w http.ResponseWriter, req *http.Request, s session.Store, l hclog.Logger) (*session.Session, string, error) {
	const op = "SessionCookie.Load"
	sid, ok := c.Read(req)
	if !ok {
		return &session.Session{}, "", nil
	}
	sess, err := s.Get(ctx, sid)
	switch {
	case err == nil:
		return sess, sid, nil
	case !errors.Is(err, session.ErrCorruptSession):
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if l != nil {
		l.Warn("discarding corrupt session", "op", op, "error", err)
	}
	if err := s.Clear(ctx, sid); err != nil {
		return nil, "", fmt.Errorf("%s: unable to clear corrupt session: %w", op, err)
	}
	c.Expire(w)
	return &session.Session{}, "", nil
}

// Write sets the session id cookie.
func (c SessionCookie) Write(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, c.cookie(sessionID, 0))
}

// Expire tells the browser to drop the session id cookie.
func (c SessionCookie) Expire(w http.ResponseWriter) {
	http.SetCookie(w, c.cookie("", -1))
}

func (c SessionCookie) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     c.name(),
		Value:    value,
		Path:     c.path(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   !c.Insecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c SessionCookie) name() string {
	if c.Name == "" {
		return DefaultCookieName
	}
	return c.Name
}

func (c SessionCookie) path() string {
	if c.Path == "" {
		return "/"
	}
	return c.Path
}
