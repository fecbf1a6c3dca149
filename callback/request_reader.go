// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package callback

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hashicorp/carrierauth/flow"
)

// MaxParamLen is the longest request parameter value accepted.
const MaxParamLen = 2048

// callback query parameters
const (
	paramCarrierID        = "mccmnc"
	paramError            = "error"
	paramErrorDescription = "error_description"
	paramState            = "state"
	paramCode             = "code"
	paramLoginHintToken   = "login_hint_token"

	// formContext is the ReAuth form value with the step-up context
	formContext = "context"
)

var carrierIDPattern = regexp.MustCompile(`^[0-9]{5,6}$`)

// ParseParams reads the callback parameters from the request's query.  Values
// are trimmed of surrounding whitespace.  A carrier id must be 5 or 6 digits
// and every other value must be printable and at most MaxParamLen bytes.  A
// parameter given more than once is rejected.  All violations return
// ErrInvalidRequest.
func ParseParams(req *http.Request) (flow.CallbackParams, error) {
	const op = "callback.ParseParams"
	if req == nil || req.URL == nil {
		return flow.CallbackParams{}, fmt.Errorf("%s: request is nil: %w", op, ErrNilParameter)
	}
	q, err := url.ParseQuery(req.URL.RawQuery)
	if err != nil {
		return flow.CallbackParams{}, fmt.Errorf("%s: malformed query: %w", op, ErrInvalidRequest)
	}

	var p flow.CallbackParams
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{paramCarrierID, &p.CarrierID},
		{paramError, &p.Error},
		{paramErrorDescription, &p.ErrorDescription},
		{paramState, &p.State},
		{paramCode, &p.Code},
		{paramLoginHintToken, &p.LoginHintToken},
	} {
		v, err := queryValue(q, f.name)
		if err != nil {
			return flow.CallbackParams{}, fmt.Errorf("%s: %w", op, err)
		}
		*f.dst = v
	}
	if p.CarrierID != "" && !carrierIDPattern.MatchString(p.CarrierID) {
		return flow.CallbackParams{}, fmt.Errorf("%s: %s is not a carrier id: %w", op, paramCarrierID, ErrInvalidRequest)
	}
	return p, nil
}

func queryValue(q url.Values, name string) (string, error) {
	vs := q[name]
	switch len(vs) {
	case 0:
		return "", nil
	case 1:
	default:
		return "", fmt.Errorf("%s given %d times: %w", name, len(vs), ErrInvalidRequest)
	}
	return sanitize(name, vs[0])
}

func sanitize(name, v string) (string, error) {
	v = strings.TrimSpace(v)
	switch {
	case len(v) > MaxParamLen:
		return "", fmt.Errorf("%s is too long: %w", name, ErrInvalidRequest)
	case !utf8.ValidString(v):
		return "", fmt.Errorf("%s is not valid utf-8: %w", name, ErrInvalidRequest)
	}
	for _, r := range v {
		if !unicode.IsPrint(r) {
			return "", fmt.Errorf("%s has a non-printable character: %w", name, ErrInvalidRequest)
		}
	}
	return v, nil
}
