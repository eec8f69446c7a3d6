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

// Package sybil serves the viewer API on App Engine.  Requests to the
// backend services are made with the URL Fetch service and carry the bearer
// token of the incoming request.
package sybil

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"google.golang.org/appengine"
	"google.golang.org/appengine/urlfetch"

	"github.com/sybil-lite/sybil/api"
	"github.com/sybil-lite/sybil/backend"
	"github.com/sybil-lite/sybil/controller"
	"github.com/sybil-lite/sybil/internal/config"
)

func init() {
	path := os.Getenv("SYBIL_CONFIG")
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	newImageStore := func(req *http.Request) (api.ImageStore, error) {
		client, err := newAppEngineClient(cfg, req)
		if err != nil {
			return nil, err
		}
		return api.BackendImages(client, true)(req)
	}
	if cfg.Images.Bucket != "" {
		stores := &api.GCSImageStores{Bucket: cfg.Images.Bucket, Prefix: cfg.Images.Prefix}
		newImageStore = func(req *http.Request) (api.ImageStore, error) {
			return stores.FromBearerToken(req.WithContext(appengine.NewContext(req)))
		}
	}

	server := api.NewServer(func(req *http.Request) (controller.Backend, error) {
		client, err := newAppEngineClient(cfg, req)
		if err != nil {
			return nil, err
		}
		return client.ForRequest(req)
	}, newImageStore, cfg.Linker())
	server.DefaultProject(cfg.Project)
	server.RegionLayout(cfg.Layout())
	ttl, err := cfg.SessionTTL()
	if err != nil {
		log.Fatalf("Invalid server.session_ttl: %v", err)
	}
	server.SessionLimits(ttl, cfg.Server.MaxSessions)

	router := gin.New()
	router.Use(gin.Recovery())
	server.Export(router)
	http.Handle("/", router)
}

func newAppEngineClient(cfg *config.Config, req *http.Request) (*backend.Client, error) {
	return cfg.NewClient(backend.WithHTTPClient(urlfetch.Client(appengine.NewContext(req))))
}
