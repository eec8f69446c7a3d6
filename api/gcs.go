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
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/sybil-lite/sybil/backend"
)

// GCSImages is an ImageStore backed by a Google Cloud Storage bucket.  The
// image named n is the object Prefix+n.
type GCSImages struct {
	Client *storage.Client
	Bucket string
	Prefix string
}

// Open returns a reader for the object holding the named image.
func (g GCSImages) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	r, err := g.Client.Bucket(g.Bucket).Object(g.Prefix + name).NewReader(ctx)
	if err != nil {
		return nil, "", err
	}
	return r, r.ContentType(), nil
}

// GCSImageStores constructs GCSImages for incoming requests.  Clients that
// do not depend on the request are created once and cached.
type GCSImageStores struct {
	Bucket, Prefix string

	once    sync.Once
	client  *storage.Client
	initErr error
}

func (g *GCSImageStores) withOptions(opts ...option.ClientOption) (ImageStore, error) {
	g.once.Do(func() {
		g.client, g.initErr = storage.NewClient(context.Background(), opts...)
		if g.initErr != nil {
			log.Printf("Creating default storage client: %v", g.initErr)
		}
	})
	if g.initErr != nil {
		return nil, g.initErr
	}
	return GCSImages{g.client, g.Bucket, g.Prefix}, nil
}

// Default returns an image store that uses the application default
// credentials.
func (g *GCSImageStores) Default(_ *http.Request) (ImageStore, error) {
	return g.withOptions()
}

// Public returns an image store that does not use any form of client
// authorization.  It can only be used to read publicly-readable images.
func (g *GCSImageStores) Public(_ *http.Request) (ImageStore, error) {
	return g.withOptions(option.WithHTTPClient(http.DefaultClient))
}

// FromBearerToken returns an image store that uses the OAuth2 bearer token
// found in req to read images.
func (g *GCSImageStores) FromBearerToken(req *http.Request) (ImageStore, error) {
	token, err := backend.BearerToken(req.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}
	client, err := storage.NewClient(req.Context(), option.WithTokenSource(oauth2.StaticTokenSource(token)))
	if err != nil {
		return nil, fmt.Errorf("creating client with token source: %v", err)
	}
	return requestImages{GCSImages{client, g.Bucket, g.Prefix}}, nil
}

// requestImages is a GCSImages whose client serves a single request.  The
// client is closed along with the image, or at once when opening fails.
type requestImages struct {
	GCSImages
}

func (r requestImages) Open(ctx context.Context, name string) (io.ReadCloser, string, error) {
	image, contentType, err := r.GCSImages.Open(ctx, name)
	if err != nil {
		r.Client.Close()
		return nil, "", err
	}
	return closeClient{image, r.Client}, contentType, nil
}

type closeClient struct {
	io.ReadCloser
	client *storage.Client
}

func (c closeClient) Close() error {
	err := c.ReadCloser.Close()
	if cerr := c.client.Close(); err == nil {
		err = cerr
	}
	return err
}

func newStorageError(context string, err error) error {
	if err == backend.ErrMissingOrInvalidToken {
		return newPermissionDeniedError(context, err)
	}
	if err == storage.ErrObjectNotExist {
		return newNotFoundError("image does not exist", err)
	}
	if err, ok := err.(*googleapi.Error); ok {
		switch err.Code {
		case http.StatusUnauthorized:
			return newInvalidAuthenticationError(context, err)
		case http.StatusForbidden:
			return newPermissionDeniedError(context, err)
		case http.StatusNotFound:
			return newNotFoundError(context, err)
		}
	}
	return classify(context, err)
}
