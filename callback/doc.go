// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package callback provides the relying party's http.HandlerFuncs for a carrier
mediated login: the redirect callback, the login page, step-up
re-authentication and logout.

Each handler loads the browser's session through a SessionCookie and a
session.Store, asks a flow.Controller what to do, applies the returned
SessionUpdate and then performs the Action (a redirect or a short text/plain
error).

	c, _ := flow.NewController(client)
	store := session.NewMemoryStore()
	cb, _ := callback.Callback(c, store)
	login, _ := callback.Login(c, store)
	http.Handle("/auth/callback", cb)
	http.Handle("/auth/login", login)
*/
package callback
