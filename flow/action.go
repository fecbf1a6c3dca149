// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flow

import "github.com/hashicorp/carrierauth/session"

// ActionType is what the caller must do next.
type ActionType int

const (
	// ActionRedirectHome: nothing to do, send the user to the home page.
	ActionRedirectHome ActionType = iota

	// ActionRedirectToDiscovery: the carrier isn't known and there's no
	// pending attempt, send the user to the login (discovery initiation)
	// page.
	ActionRedirectToDiscovery

	// ActionRedirectToCarrierDiscovery: send the user to the carrier
	// discovery UI at URL.
	ActionRedirectToCarrierDiscovery

	// ActionRedirectToAuthorization: send the user to the carrier's
	// authorization endpoint at URL.
	ActionRedirectToAuthorization

	// ActionComplete: login completed for Profile.
	ActionComplete

	// ActionReAuthSuccess: the step-up re-authentication was confirmed.
	ActionReAuthSuccess

	// ActionFail: the flow failed with Err.
	ActionFail
)

func (t ActionType) String() string {
	switch t {
	case ActionRedirectHome:
		return "redirect home"
	case ActionRedirectToDiscovery:
		return "redirect to discovery"
	case ActionRedirectToCarrierDiscovery:
		return "redirect to carrier discovery"
	case ActionRedirectToAuthorization:
		return "redirect to authorization"
	case ActionComplete:
		return "complete"
	case ActionReAuthSuccess:
		return "reauth success"
	case ActionFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Action is the outcome of a Controller decision.  Only the fields for its
// Type are set.
type Action struct {
	Type    ActionType
	URL     string
	Profile *session.UserProfile
	Err     *Error
}

// RedirectHome creates an ActionRedirectHome
func RedirectHome() Action { return Action{Type: ActionRedirectHome} }

// RedirectToDiscovery creates an ActionRedirectToDiscovery
func RedirectToDiscovery() Action { return Action{Type: ActionRedirectToDiscovery} }

// RedirectToCarrierDiscovery creates an ActionRedirectToCarrierDiscovery
func RedirectToCarrierDiscovery(u string) Action {
	return Action{Type: ActionRedirectToCarrierDiscovery, URL: u}
}

// RedirectToAuthorization creates an ActionRedirectToAuthorization
func RedirectToAuthorization(u string) Action {
	return Action{Type: ActionRedirectToAuthorization, URL: u}
}

// Complete creates an ActionComplete
func Complete(p *session.UserProfile) Action { return Action{Type: ActionComplete, Profile: p} }

// ReAuthSuccess creates an ActionReAuthSuccess
func ReAuthSuccess() Action { return Action{Type: ActionReAuthSuccess} }

// Fail creates an ActionFail
func Fail(e *Error) Action { return Action{Type: ActionFail, Err: e} }
