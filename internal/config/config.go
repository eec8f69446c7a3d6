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

// Package config loads the settings shared by the sybil binaries.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/sybil-lite/sybil/backend"
	"github.com/sybil-lite/sybil/page"
	"github.com/sybil-lite/sybil/view"
)

// Config is the top-level configuration, corresponding to sybil.yml.
type Config struct {
	Backend      BackendConfig `yaml:"backend" koanf:"backend"`
	Link         LinkConfig    `yaml:"link" koanf:"link"`
	Server       ServerConfig  `yaml:"server" koanf:"server"`
	Images       ImagesConfig  `yaml:"images" koanf:"images"`
	Project      string        `yaml:"project" koanf:"project"`
	RegionLayout string        `yaml:"region_layout" koanf:"region_layout"`
}

// BackendConfig locates the rendering and search services.
type BackendConfig struct {
	BaseURL   string            `yaml:"base_url" koanf:"base_url"`
	Endpoints backend.Endpoints `yaml:"endpoints" koanf:"endpoints"`
	// Timeout bounds each backend request, e.g. "30s".  Empty means no
	// timeout.
	Timeout string `yaml:"timeout" koanf:"timeout"`
}

// LinkConfig describes where shareable URLs point.  An empty host means the
// host the viewer was reached on.
type LinkConfig struct {
	Host    string `yaml:"host" koanf:"host"`
	AppPath string `yaml:"app_path" koanf:"app_path"`
	Script  string `yaml:"script" koanf:"script"`
	Escape  bool   `yaml:"escape" koanf:"escape"`
}

// ServerConfig holds the settings of sybil-server.
type ServerConfig struct {
	Port      int    `yaml:"port" koanf:"port"`
	Secure    bool   `yaml:"secure" koanf:"secure"`
	HTTPSCert string `yaml:"https_cert" koanf:"https_cert"`
	HTTPSKey  string `yaml:"https_key" koanf:"https_key"`

	// TrackUsage enables anonymous usage reporting to AnalyticsProperty.
	TrackUsage        bool   `yaml:"track_usage" koanf:"track_usage"`
	AnalyticsProperty string `yaml:"analytics_property" koanf:"analytics_property"`

	// Sessions idle for longer than SessionTTL are dropped, as is the least
	// recently used session once MaxSessions are open.
	SessionTTL  string `yaml:"session_ttl" koanf:"session_ttl"`
	MaxSessions int    `yaml:"max_sessions" koanf:"max_sessions"`
}

// ImagesConfig selects where rendered images are read from.  With no bucket
// they are read through the image endpoint of the backend.
type ImagesConfig struct {
	Bucket string `yaml:"bucket" koanf:"bucket"`
	Prefix string `yaml:"prefix" koanf:"prefix"`
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (SYBIL_*).  A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// envKey maps SYBIL_BACKEND__BASE_URL to backend.base_url.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(s, "__", ".", -1)
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	base, err := url.Parse(c.Backend.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return fmt.Errorf("backend.base_url %q must be an absolute URL", c.Backend.BaseURL)
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}
	if c.RegionLayout != "" {
		if _, err := page.ParseLayout(c.RegionLayout); err != nil {
			return fmt.Errorf("region_layout: %v", err)
		}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if (c.Server.HTTPSCert == "") != (c.Server.HTTPSKey == "") {
		return fmt.Errorf("server.https_cert and server.https_key must be set together")
	}
	if c.Server.TrackUsage && c.Server.AnalyticsProperty == "" {
		return fmt.Errorf("server.analytics_property is required to track usage")
	}
	if _, err := c.SessionTTL(); err != nil {
		return err
	}
	if c.Server.MaxSessions <= 0 {
		return fmt.Errorf("server.max_sessions must be positive, got %d", c.Server.MaxSessions)
	}
	if c.Images.Prefix != "" && c.Images.Bucket == "" {
		return fmt.Errorf("images.prefix needs images.bucket")
	}
	return nil
}

// Timeout parses Backend.Timeout.
func (c *Config) Timeout() (time.Duration, error) {
	if c.Backend.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Backend.Timeout)
	if err != nil {
		return 0, fmt.Errorf("backend.timeout: %v", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("backend.timeout %v is negative", d)
	}
	return d, nil
}

// SessionTTL parses Server.SessionTTL.
func (c *Config) SessionTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("server.session_ttl: %v", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("server.session_ttl %v must be positive", d)
	}
	return d, nil
}

// Linker returns the builder of shareable URLs.
func (c *Config) Linker() view.Linker {
	return view.Linker{
		Host:    c.Link.Host,
		AppPath: c.Link.AppPath,
		Script:  c.Link.Script,
		Escape:  c.Link.Escape,
	}
}

// Layout returns the region listing layout, graphical when unset.
func (c *Config) Layout() page.Layout {
	if c.RegionLayout == "" {
		return page.Graphical
	}
	return page.Layout(c.RegionLayout)
}

// NewClient returns a backend client for the configured services.
func (c *Config) NewClient(opts ...backend.Option) (*backend.Client, error) {
	timeout, err := c.Timeout()
	if err != nil {
		return nil, err
	}
	opts = append([]backend.Option{backend.WithEndpoints(c.Backend.Endpoints)}, opts...)
	if timeout > 0 {
		opts = append(opts, backend.WithTimeout(timeout))
	}
	return backend.NewClient(c.Backend.BaseURL, opts...)
}
