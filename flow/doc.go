// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package flow decides what happens next in a carrier mediated login.

A Controller is given the parameters of an inbound request and a snapshot of
the browser's session, and returns an Action for the caller to perform (a
redirect, a completed login, a confirmed step-up or a failure) and a
SessionUpdate for the caller to apply to its session store.  The Controller
never writes to a store itself and holds no per request state, so one
Controller serves every request.

The happy path for a login is:

	BeginLogin            -> RedirectToCarrierDiscovery (State issued)
	Evaluate(mccmnc)      -> RedirectToAuthorization    (carrier cached)
	Evaluate(code)        -> Complete                   (user set, State consumed)

A step-up re-authentication starts with BeginReAuth and ends with
ReAuthSuccess.  It requests a higher acr and binds the response to the
already authenticated user.  Any failure clears the session.
*/
package flow
