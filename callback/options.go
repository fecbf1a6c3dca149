// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"github.com/hashicorp/go-hclog"
)

// default paths the handlers redirect to
const (
	DefaultHomePath          = "/"
	DefaultLoginPath         = "/auth/login"
	DefaultReAuthSuccessPath = "/?reauth=success"
)

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

// options is the set of available options for the handlers
type options struct {
	withLogger            hclog.Logger
	withHomePath          string
	withLoginPath         string
	withReAuthSuccessPath string
	withCookie            SessionCookie
	withErrorResponse     ErrorResponseFunc
}

func getDefaultOptions() options {
	return options{
		withLogger:            hclog.NewNullLogger(),
		withHomePath:          DefaultHomePath,
		withLoginPath:         DefaultLoginPath,
		withReAuthSuccessPath: DefaultReAuthSuccessPath,
		withCookie:            SessionCookie{Name: DefaultCookieName, Path: "/"},
		withErrorResponse:     DefaultErrorResponse,
	}
}

func getOpts(opt ...Option) options {
	opts := getDefaultOptions()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithLogger provides an optional logger
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && l != nil {
			o.withLogger = l
		}
	}
}

// WithHomePath provides an optional path for the home page
func WithHomePath(p string) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && p != "" {
			o.withHomePath = p
		}
	}
}

// WithLoginPath provides an optional path for the login page, which is where
// users without a carrier are sent.
func WithLoginPath(p string) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && p != "" {
			o.withLoginPath = p
		}
	}
}

// WithReAuthSuccessPath provides an optional path users are sent to after a
// successful step-up re-authentication.
func WithReAuthSuccessPath(p string) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && p != "" {
			o.withReAuthSuccessPath = p
		}
	}
}

// WithCookieName provides an optional name for the session id cookie
func WithCookieName(n string) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && n != "" {
			o.withCookie.Name = n
		}
	}
}

// WithInsecureCookies drops the Secure attribute from the session id cookie.
// Only use it for local development over plain http.
func WithInsecureCookies() Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withCookie.Insecure = true
		}
	}
}

// WithErrorResponse provides an optional ErrorResponseFunc
func WithErrorResponse(fn ErrorResponseFunc) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && fn != nil {
			o.withErrorResponse = fn
		}
	}
}
