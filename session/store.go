// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import "context"

// Store persists sessions by id.  Implementations must be concurrently safe.
type Store interface {
	// Get returns a copy of the session.  A missing (or expired) session is
	// returned as an empty session, not an error.
	Get(ctx context.Context, id string) (*Session, error)

	// Put replaces the session.  Last write wins.
	Put(ctx context.Context, id string, s *Session) error

	// Clear removes the session.  Clearing a missing session is not an error.
	Clear(ctx context.Context, id string) error
}
