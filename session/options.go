// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import "time"

// DefaultTTL is how long a store keeps a session after its last Put.
const DefaultTTL = 24 * time.Hour

// DefaultRedisPrefix is the key prefix used by a RedisStore
const DefaultRedisPrefix = "carrierauth:session"

// Option defines a common functional options type which can be used in a
// variadic parameter pattern.
type Option func(interface{})

// ApplyOpts takes a pointer to the options struct as a set of default options
// and applies the slice of opts as overrides.
func ApplyOpts(opts interface{}, opt ...Option) {
	for _, o := range opt {
		if o == nil { // ignore any nil Options
			continue
		}
		o(opts)
	}
}

// options is the set of available options for stores
type options struct {
	withTTL     time.Duration
	withPrefix  string
	withNowFunc func() time.Time
}

func getDefaultOptions() options {
	return options{
		withTTL:    DefaultTTL,
		withPrefix: DefaultRedisPrefix,
	}
}

func getOpts(opt ...Option) options {
	opts := getDefaultOptions()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithTTL provides an optional session lifetime, counted from the last Put.
// Valid for: MemoryStore, RedisStore
func WithTTL(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && d > 0 {
			o.withTTL = d
		}
	}
}

// WithPrefix provides an optional key prefix. Valid for: RedisStore
func WithPrefix(p string) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && p != "" {
			o.withPrefix = p
		}
	}
}

// WithNow provides an optional func for determining what the current time it
// is. Valid for: MemoryStore
func WithNow(now func() time.Time) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && now != nil {
			o.withNowFunc = now
		}
	}
}
