// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package flow

import (
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/text/language"
)

// DefaultScopes are requested for a login.
var DefaultScopes = []string{"openid", "name", "email", "phone", "postal_code"}

// DefaultStepUpACR is the acr requested for a step-up re-authentication.
const DefaultStepUpACR = "a3"

// DefaultStateTTL is how long a login or step-up attempt may take.
const DefaultStateTTL = 10 * time.Minute

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

// options is the set of available options for a Controller
type options struct {
	withLogger         hclog.Logger
	withScopes         []string
	withStepUpACR      string
	withStateTTL       time.Duration
	withContextBinding bool
	withUILocales      []language.Tag
	withNowFunc        func() time.Time
}

func getDefaultOptions() options {
	return options{
		withLogger:    hclog.NewNullLogger(),
		withScopes:    DefaultScopes,
		withStepUpACR: DefaultStepUpACR,
		withStateTTL:  DefaultStateTTL,
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

// WithScopes provides optional scopes to request for a login.  "openid" is
// always requested.
func WithScopes(scopes ...string) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && len(scopes) > 0 {
			o.withScopes = scopes
		}
	}
}

// WithStepUpACR provides an optional acr to request for a step-up
// re-authentication.
func WithStepUpACR(acr string) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && acr != "" {
			o.withStepUpACR = acr
		}
	}
}

// WithStateTTL provides an optional lifetime for issued States.
func WithStateTTL(d time.Duration) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && d > 0 {
			o.withStateTTL = d
		}
	}
}

// WithContextBinding requires a step-up response's id_token to echo the
// requested context.  Off by default since not every carrier returns it.
func WithContextBinding(enabled bool) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok {
			o.withContextBinding = enabled
		}
	}
}

// WithNow provides an optional func for determining what the current time it
// is.
func WithNow(now func() time.Time) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && now != nil {
			o.withNowFunc = now
		}
	}
}

// WithUILocales provides optional preferred languages for the carrier's pages
func WithUILocales(locales ...language.Tag) Option {
	return func(o interface{}) {
		if o, ok := o.(*options); ok && len(locales) > 0 {
			o.withUILocales = locales
		}
	}
}
