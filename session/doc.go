// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

/*
Package session provides the per browser session state used by carrier
mediated logins: the authenticated user's profile, an outstanding step-up
re-authentication, the cached carrier id and the pending authentication
state.

Sessions are stored by a Store.  Two stores are provided:

* MemoryStore: a mutex guarded map, suitable for a single process.

* RedisStore: JSON encoded sessions in Redis via github.com/redis/go-redis/v9.

Stores never hand out a Session they still reference, so callers are free to
modify what they Get.  Last write wins.
*/
package session
