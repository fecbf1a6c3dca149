// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flow

import (
	"github.com/hashicorp/carrierauth/oidc"
	"github.com/hashicorp/carrierauth/session"
)

// SessionUpdate describes how a session must change after a decision.  The
// zero value changes nothing.  Consume fields are applied before Set fields,
// and Clear overrides everything else.
type SessionUpdate struct {
	// Clear empties the session.
	Clear bool

	SetState     *oidc.State
	ConsumeState bool

	SetReAuth     *session.ReAuthContext
	ConsumeReAuth bool

	SetCurrentUser *session.UserProfile
	SetCarrierID   string
}

// NoChange is the SessionUpdate that changes nothing
func NoChange() SessionUpdate { return SessionUpdate{} }

// Clear is the SessionUpdate that empties the session
func Clear() SessionUpdate { return SessionUpdate{Clear: true} }

// IsZero returns true if the update changes nothing
func (u SessionUpdate) IsZero() bool {
	return !u.Clear &&
		u.SetState == nil && !u.ConsumeState &&
		u.SetReAuth == nil && !u.ConsumeReAuth &&
		u.SetCurrentUser == nil && u.SetCarrierID == ""
}

// Apply returns the updated session.  The session passed in is never
// modified.
func (u SessionUpdate) Apply(s *session.Session) *session.Session {
	if u.Clear {
		return &session.Session{}
	}
	out := s.Clone()
	if u.ConsumeState {
		out.State = nil
	}
	if u.ConsumeReAuth {
		out.ReAuth = nil
	}
	if u.SetState != nil {
		st := *u.SetState
		out.State = &st
	}
	if u.SetReAuth != nil {
		r := *u.SetReAuth
		out.ReAuth = &r
	}
	if u.SetCurrentUser != nil {
		out.CurrentUser = u.SetCurrentUser.Clone()
	}
	if u.SetCarrierID != "" {
		out.CarrierID = u.SetCarrierID
	}
	return out
}
