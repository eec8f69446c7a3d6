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

package view

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultScript is the page that accepts deep-linked views.
const DefaultScript = "sybil_lite.cgi"

// Linker builds shareable URLs for a deployment of the viewer.
type Linker struct {
	// Host is the host (and optional port) serving the viewer.
	Host string
	// AppPath is the directory of the viewer on Host.  It is normalized to
	// begin and end with a slash.
	AppPath string
	// Script is the deep-link page, DefaultScript when empty.
	Script string
	// Escape query-escapes field values.  Existing links are built without
	// escaping, so it is off by default.
	Escape bool
}

// URL returns the shareable URL of the tracked fields of s:
//
//	http://<host><app-path><script>?project=..&orgsOrder=..&orgsSelected=..&scaffold=..&range=..
//
// Values are concatenated literally unless l.Escape is set.
func (l Linker) URL(s State) string {
	var b strings.Builder
	b.WriteString("http://")
	b.WriteString(l.Host)
	b.WriteString(normalizeAppPath(l.AppPath))
	b.WriteString(l.script())
	b.WriteByte('?')
	for i, value := range s.tracked() {
		if i > 0 {
			b.WriteByte('&')
		}
		if l.Escape {
			value = url.QueryEscape(value)
		}
		b.WriteString(TrackedFields[i])
		b.WriteByte('=')
		b.WriteString(value)
	}
	return b.String()
}

// Parse extracts the view state from a URL built by URL.
func (l Linker) Parse(rawURL string) (State, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return State{}, fmt.Errorf("parsing URL: %v", err)
	}
	if base := u.Path[strings.LastIndex(u.Path, "/")+1:]; base != l.script() {
		return State{}, fmt.Errorf("URL path %q does not name %s", u.Path, l.script())
	}
	return ParseQuery(u.RawQuery)
}

func (l Linker) script() string {
	if l.Script == "" {
		return DefaultScript
	}
	return l.Script
}

// AppPath returns the directory containing the page at requestPath, with a
// trailing slash.  "/sybil/sybil_lite.cgi" yields "/sybil/".
func AppPath(requestPath string) string {
	parts := strings.Split(requestPath, "/")
	path := "/"
	for i := 1; i < len(parts)-1; i++ {
		path += parts[i] + "/"
	}
	return path
}

func normalizeAppPath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path
}
