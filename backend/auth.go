// Copyright 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backend

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
)

// ErrMissingOrInvalidToken is returned by BearerToken for an Authorization
// header that does not hold a bearer token.
var ErrMissingOrInvalidToken = errors.New("missing or invalid token")

// BearerToken extracts the OAuth2 bearer token from an Authorization header
// value.
func BearerToken(authorization string) (*oauth2.Token, error) {
	fields := strings.Split(authorization, " ")
	if len(fields) != 2 || fields[0] != "Bearer" || fields[1] == "" {
		return nil, ErrMissingOrInvalidToken
	}
	return &oauth2.Token{TokenType: fields[0], AccessToken: fields[1]}, nil
}

// WithTokenSource authorizes every request with tokens from ts.  The
// transport of the current HTTP client is reused underneath.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.client)
		hc := oauth2.NewClient(ctx, ts)
		hc.Timeout = c.client.Timeout
		c.client = hc
	}
}

// ForRequest returns a copy of c that forwards the bearer token of req to
// the backend.  It fails with ErrMissingOrInvalidToken when req carries no
// such token.
func (c *Client) ForRequest(req *http.Request) (*Client, error) {
	token, err := BearerToken(req.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}
	forwarded := *c
	WithTokenSource(oauth2.StaticTokenSource(token))(&forwarded)
	return &forwarded, nil
}
