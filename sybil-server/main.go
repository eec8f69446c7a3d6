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

// This binary serves synteny viewer sessions on top of the rendering and
// search services.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/profile"

	"github.com/sybil-lite/sybil/analytics"
	"github.com/sybil-lite/sybil/api"
	"github.com/sybil-lite/sybil/internal/config"
)

var (
	configPath = flag.String("config", config.DefaultPath, "configuration file")
	port       = flag.Int("port", 0, "HTTP service port (overrides server.port)")

	secure    = flag.Bool("secure", false, "serve in HTTPS-only mode and forward client bearer tokens")
	httpsCert = flag.String("https_cert", "", "HTTPS certificate file")
	httpsKey  = flag.String("https_key", "", "HTTPS key file")

	// Enable or disable anonymous usage tracking.
	//
	// If enabled, anonymous information about requests handled by the server is
	// logged to Google via Google Analytics.  No user identifying information
	// is ever sent.
	trackUsage = flag.Bool("track_usage", false, "anonymous usage tracking")

	profileMode = flag.String("profile", "", "write a cpu, mem or block profile to the working directory")
)

func main() {
	flag.Parse()

	if *profileMode != "" {
		mode, err := profileOption(*profileMode)
		if err != nil {
			log.Fatalf("Invalid -profile: %v", err)
		}
		defer profile.Start(mode, profile.ProfilePath(".")).Stop()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Server.Port = *port
		case "secure":
			cfg.Server.Secure = *secure
		case "https_cert":
			cfg.Server.HTTPSCert = *httpsCert
		case "https_key":
			cfg.Server.HTTPSKey = *httpsKey
		case "track_usage":
			cfg.Server.TrackUsage = *trackUsage
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.Server.Secure && (cfg.Server.HTTPSCert == "" || cfg.Server.HTTPSKey == "") {
		log.Fatalf("You must specify both -https_cert and -https_key in secure mode.")
	}

	client, err := cfg.NewClient()
	if err != nil {
		log.Fatalf("Failed to create backend client: %v", err)
	}

	newBackend := api.SharedBackend(client)
	if cfg.Server.Secure {
		newBackend = api.ForwardingBackend(client)
	}

	newImageStore := api.BackendImages(client, cfg.Server.Secure)
	if cfg.Images.Bucket != "" {
		stores := &api.GCSImageStores{Bucket: cfg.Images.Bucket, Prefix: cfg.Images.Prefix}
		newImageStore = stores.Public
		if cfg.Server.Secure {
			newImageStore = stores.FromBearerToken
		}
	}

	server := api.NewServer(newBackend, newImageStore, cfg.Linker())
	server.DefaultProject(cfg.Project)
	server.RegionLayout(cfg.Layout())
	ttl, err := cfg.SessionTTL()
	if err != nil {
		log.Fatalf("Invalid server.session_ttl: %v", err)
	}
	server.SessionLimits(ttl, cfg.Server.MaxSessions)

	router := gin.Default()
	if cfg.Server.TrackUsage {
		log.Printf("Enabling anonymous usage tracking")

		tracker := analytics.NewClient(cfg.Server.AnalyticsProperty, uuid.New().String())
		router.Use(analytics.Tracking(func(hits []analytics.Hit) {
			if err := tracker.Send(hits); err != nil {
				log.Printf("Failed to send %d hits to analytics: %v", len(hits), err)
			}
		}))
	}
	server.Export(router)

	address := fmt.Sprintf(":%d", cfg.Server.Port)
	if cfg.Server.Secure {
		if err := router.RunTLS(address, cfg.Server.HTTPSCert, cfg.Server.HTTPSKey); err != nil {
			log.Fatalf("HTTPS server returned an error: %v", err)
		}
	} else {
		if err := router.Run(address); err != nil {
			log.Fatalf("HTTP server returned an error: %v", err)
		}
	}
}

func profileOption(mode string) (func(*profile.Profile), error) {
	switch mode {
	case "cpu":
		return profile.CPUProfile, nil
	case "mem":
		return profile.MemProfile, nil
	case "block":
		return profile.BlockProfile, nil
	}
	return nil, fmt.Errorf("unknown profile %q", mode)
}
