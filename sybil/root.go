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

package main

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/sybil-lite/sybil/backend"
	"github.com/sybil-lite/sybil/controller"
	"github.com/sybil-lite/sybil/internal/config"
	"github.com/sybil-lite/sybil/view"
)

const (
	scope = "https://www.googleapis.com/auth/userinfo.email"
)

var (
	cfgFile    string
	googleAuth bool
)

var rootCmd = &cobra.Command{
	Use:   "sybil",
	Short: "Render and navigate synteny views",
	Long: `sybil talks to the rendering, gene coordinate, search and region of
interest services behind the synteny viewer.  It renders views, recenters
them on genes, builds shareable links and manages saved regions.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVar(&googleAuth, "google-auth", false, "authorize backend requests with Google application default credentials")
}

// loadConfig reads and validates the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %v", cfgFile, err)
	}
	return cfg, nil
}

// newClient returns a backend client for cfg.
func newClient(ctx context.Context, cfg *config.Config) (*backend.Client, error) {
	hc, err := httpClient(ctx)
	if err != nil {
		return nil, err
	}
	return cfg.NewClient(backend.WithHTTPClient(hc))
}

// httpClient returns the client used for backend requests.
func httpClient(ctx context.Context) (*http.Client, error) {
	// For compatibility with other tools, read the standard cURL certificate
	// authority override from the environment.
	if bundle := os.Getenv("CURL_CA_BUNDLE"); bundle != "" {
		pem, err := ioutil.ReadFile(bundle)
		if err != nil {
			return nil, fmt.Errorf("reading CA override file %q: %v", bundle, err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil {
			return nil, fmt.Errorf("initializing system certificate pool: %v", err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("adding certificates from bundle %q", bundle)
		}
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					RootCAs: pool,
				}},
		})
		log.Printf("Using CA override bundle from %q", bundle)
	}

	if googleAuth {
		client, err := google.DefaultClient(ctx, scope)
		if err != nil {
			return nil, fmt.Errorf("creating client: %v", err)
		}
		return client, nil
	}
	if c, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok {
		return c, nil
	}
	return http.DefaultClient, nil
}

// newController returns a controller whose progress and alerts are logged.
func newController(ctx context.Context) (*controller.Controller, *backend.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return controller.New(client, logDisplay{}, cfg.Linker()), client, cfg, nil
}

// logDisplay reports controller progress on the standard logger.
type logDisplay struct{}

func (logDisplay) ShowProgress()                {}
func (logDisplay) HideProgress()                {}
func (logDisplay) Alert(message string)         { log.Printf("Error: %s", message) }
func (logDisplay) ShowRegions([]backend.Region) {}

func (logDisplay) ShowResult(result *backend.RenderResult, s view.State, _ string) {
	log.Printf("Rendered %s %s into %s", s.Scaffold, result.Range, result.ImageFile)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
