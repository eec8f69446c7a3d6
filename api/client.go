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

package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/sybil-lite/sybil/backend"
	"github.com/sybil-lite/sybil/controller"
	"github.com/sybil-lite/sybil/genomics"
	"github.com/sybil-lite/sybil/view"
)

// ImageStore is an interface to wherever rendered images are kept.
type ImageStore interface {
	// Open returns a reader for the named image and the image's content
	// type.  The caller must close the reader.
	Open(ctx context.Context, name string) (io.ReadCloser, string, error)
}

// NewImageStoreFunc is the type of function that constructs the ImageStore
// for an incoming request.
type NewImageStoreFunc func(*http.Request) (ImageStore, error)

// NewBackendFunc is the type of function that constructs the backend client
// used to satisfy an incoming request.
type NewBackendFunc func(*http.Request) (controller.Backend, error)

// SharedBackend returns a NewBackendFunc that uses client for every request.
func SharedBackend(client *backend.Client) NewBackendFunc {
	return func(*http.Request) (controller.Backend, error) { return client, nil }
}

// ForwardingBackend returns a NewBackendFunc that forwards the bearer token
// of each request to the backend services.
func ForwardingBackend(client *backend.Client) NewBackendFunc {
	return func(req *http.Request) (controller.Backend, error) {
		return client.ForRequest(req)
	}
}

// BackendImages returns a NewImageStoreFunc that reads images through the
// image endpoint of the rendering backend.  When forward is set, the bearer
// token of each request is forwarded to the backend.
func BackendImages(client *backend.Client, forward bool) NewImageStoreFunc {
	return func(req *http.Request) (ImageStore, error) {
		if !forward {
			return imageClient{client}, nil
		}
		forwarded, err := client.ForRequest(req)
		if err != nil {
			return nil, err
		}
		return imageClient{forwarded}, nil
	}
}

type imageClient struct {
	*backend.Client
}

func (c imageClient) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	return c.Image(ctx, name)
}

type contextKey int

var backendKey = contextKey(0)

// contextBackend is the Backend of session controllers.  It delegates to
// the backend stored in the context of each call, which the server sets
// from the NewBackendFunc of the incoming request.
type contextBackend struct{}

func withBackend(ctx context.Context, b controller.Backend) context.Context {
	return context.WithValue(ctx, backendKey, b)
}

var errNoBackend = errors.New("no backend for request")

func backendFromContext(ctx context.Context) (controller.Backend, error) {
	if b, ok := ctx.Value(backendKey).(controller.Backend); ok {
		return b, nil
	}
	return nil, errNoBackend
}

func (contextBackend) Render(ctx context.Context, s view.State) (*backend.RenderResult, error) {
	b, err := backendFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return b.Render(ctx, s)
}

func (contextBackend) Feature(ctx context.Context, project, geneID string) (genomics.Feature, error) {
	b, err := backendFromContext(ctx)
	if err != nil {
		return genomics.Feature{}, err
	}
	return b.Feature(ctx, project, geneID)
}

func (contextBackend) Search(ctx context.Context, project, term string) ([]string, error) {
	b, err := backendFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return b.Search(ctx, project, term)
}

func (contextBackend) Regions(ctx context.Context, project string) ([]backend.Region, error) {
	b, err := backendFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return b.Regions(ctx, project)
}

func (contextBackend) SaveRegion(ctx context.Context, s view.State, label, description string) error {
	b, err := backendFromContext(ctx)
	if err != nil {
		return err
	}
	return b.SaveRegion(ctx, s, label, description)
}
