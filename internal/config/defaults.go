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

package config

import (
	"github.com/sybil-lite/sybil/backend"
	"github.com/sybil-lite/sybil/page"
	"github.com/sybil-lite/sybil/view"
)

// DefaultPath is the configuration file read when none is named.
const DefaultPath = "sybil.yml"

// EnvPrefix marks environment variables that override the file.  Nested keys
// are separated by a double underscore: SYBIL_BACKEND__BASE_URL sets
// backend.base_url.
const EnvPrefix = "SYBIL_"

// DefaultConfig returns the configuration used for missing keys.
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:   "http://localhost/sybil/",
			Endpoints: backend.DefaultEndpoints(),
		},
		Link: LinkConfig{
			AppPath: "/",
			Script:  view.DefaultScript,
		},
		Server: ServerConfig{
			Port:        8080,
			SessionTTL:  "30m",
			MaxSessions: 10000,
		},
		RegionLayout: string(page.Graphical),
	}
}
