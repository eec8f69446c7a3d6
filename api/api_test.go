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
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/sybil-lite/sybil/backend"
	"github.com/sybil-lite/sybil/genomics"
	"github.com/sybil-lite/sybil/view"
)

const (
	testProject  = "Schizos"
	testDeepLink = "/?project=Schizos&orgsOrder=SJ1,SO3&orgsSelected=SJ1&scaffold=SO3;supercont2.1&range=2000-2100"
)

var testLinker = view.Linker{Host: "example.org", AppPath: "/sybil/"}

// fakeServices stands in for the CGI services behind the viewer.  The
// renderer echoes the requested range, shifted by 1000 when scrolling right.
type fakeServices struct {
	mu    sync.Mutex
	last  map[string]url.Values
	auth  string
	saved []string
}

func (f *fakeServices) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	query := req.URL.Query()
	endpoint := req.URL.Path[strings.LastIndex(req.URL.Path, "/")+1:]

	f.mu.Lock()
	if f.last == nil {
		f.last = make(map[string]url.Values)
	}
	f.last[endpoint] = query
	f.auth = req.Header.Get("Authorization")
	f.mu.Unlock()

	switch endpoint {
	case "draw_alignment.cgi":
		iv, err := genomics.ParseInterval(query.Get("range"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if iv.IsZero() {
			iv = genomics.Interval{Start: 1, End: 50000}
		}
		if query.Get("scroll_direction") == "right" {
			iv = genomics.Interval{Start: iv.Start + 1000, End: iv.End + 1000}
		}
		image := "sybil.1.png"
		if query.Get("export_as") == "svg" {
			image = "sybil.1.svg"
		}
		writeTestJSON(w, map[string]interface{}{
			"image_file":    image,
			"range":         iv.String(),
			"pixels_per_kb": "7.5",
			"map_points":    []interface{}{map[string]interface{}{"label": "SJAG_01234", "x1": 1, "y1": 2, "x2": 3, "y2": 4}},
		})
	case "get_gene_coordinates.cgi":
		if query.Get("gene") != "SJAG_01234" {
			w.WriteHeader(http.StatusNotFound)
			writeTestJSON(w, map[string]string{"message": "unknown gene"})
			return
		}
		writeTestJSON(w, map[string]interface{}{"fmin": 2000, "fmax": "2100", "org_abbrev": "SJ1", "molecule": "supercont5.2"})
	case "search_genomes.cgi":
		fmt.Fprint(w, `["SJAG_01234", {"label": "SJAG_01235 kinase", "value": "SJAG_01235"}]`)
	case "parse_roi.cgi":
		fmt.Fprint(w, `{"regions": [{
			"id": "roi1",
			"label": "Mating type locus",
			"description": "Conserved across the clade",
			"orgsOrder": ["SJ1", "SO3"],
			"orgsSelected": ["SO3"],
			"scaffold": "SO3;supercont2.1",
			"range": "5000-9000",
			"flank": "500",
			"pixelsPerKb": 20
		}]}`)
	case "save_roi.cgi":
		f.mu.Lock()
		f.saved = append(f.saved, query.Get("roi_save_label"))
		f.mu.Unlock()
		fmt.Fprint(w, `{"saved": true}`)
	case "show_png.cgi":
		if query.Get("image") != "sybil.1.png" {
			http.Error(w, "no such image", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		fmt.Fprint(w, "PNG")
	default:
		http.Error(w, "no such endpoint", http.StatusNotFound)
	}
}

func (f *fakeServices) lastQuery(endpoint string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last[endpoint]
}

func writeTestJSON(w http.ResponseWriter, v interface{}) {
	json.NewEncoder(w).Encode(v)
}

// testViewer is a running viewer API and a cookie-keeping client for it.
type testViewer struct {
	url      string
	client   *http.Client
	services *fakeServices
}

func newTestViewer(t *testing.T, configure func(*backend.Client) *Server) *testViewer {
	services := &fakeServices{}
	backendServer := httptest.NewServer(services)
	t.Cleanup(backendServer.Close)

	client, err := backend.NewClient(backendServer.URL + "/cgi")
	require.NoError(t, err)

	var server *Server
	if configure != nil {
		server = configure(client)
	} else {
		server = NewServer(SharedBackend(client), BackendImages(client, false), testLinker)
		server.DefaultProject(testProject)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	server.Export(router)
	viewer := httptest.NewServer(router)
	t.Cleanup(viewer.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testViewer{viewer.URL, &http.Client{Jar: jar}, services}
}

func (v *testViewer) testQuery(t *testing.T, method, path string, form url.Values) *http.Response {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, v.url+path, body)
	if err != nil {
		t.Fatalf("Failed to create request for %q: %v", path, err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := v.client.Do(req)
	if err != nil {
		t.Fatalf("Failed to query %q: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	b, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response: %v", err)
	}
	return string(b)
}

func expectError(t *testing.T, name string, code int, resp *http.Response) {
	if got, want := resp.StatusCode, code; got != want {
		t.Errorf("Wrong status code: got %v, want %v", got, want)
	}
	body := make(map[string]interface{})
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Errorf("Failed to parse response: %v", err)
	}
	if got, want := body["error"], name; got != want {
		t.Errorf("Wrong 'error' field value: got %v, want %v", got, want)
	}
}

func TestHealthz(t *testing.T) {
	v := newTestViewer(t, nil)
	resp := v.testQuery(t, "GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", readBody(t, resp))
}

func TestStartListsRegions(t *testing.T) {
	v := newTestViewer(t, nil)
	resp := v.testQuery(t, "GET", "/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var start StartResponse
	decode(t, resp, &start)
	assert.False(t, start.DeepLinked)
	assert.Nil(t, start.View)
	require.NotNil(t, start.Regions)
	assert.Equal(t, testProject, start.Regions.Project)
	require.Len(t, start.Regions.Regions, 1)

	r := start.Regions.Regions[0]
	assert.Equal(t, "roi1", r.ID)
	assert.Equal(t, "./data/Schizos/regions_of_interest/roi1_150h.png", r.Thumbnail)
	assert.Equal(t, "5000-9000", r.State.Range)
	assert.Equal(t, testProject, v.services.lastQuery("parse_roi.cgi").Get("project"))
}

func TestStartDeepLinked(t *testing.T) {
	v := newTestViewer(t, nil)
	resp := v.testQuery(t, "GET", testDeepLink, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var start StartResponse
	decode(t, resp, &start)
	assert.True(t, start.DeepLinked)
	require.NotNil(t, start.View)
	require.NotNil(t, start.View.Result)

	want := "http://example.org/sybil/sybil_lite.cgi?project=Schizos&orgsOrder=SJ1,SO3&orgsSelected=SJ1&scaffold=SO3;supercont2.1&range=2000-2100"
	assert.Equal(t, want, start.View.Link)
	assert.Equal(t, "/image/sybil.1.png", start.View.Result.ImageURL)
	assert.Equal(t, 7.5, start.View.Result.PixelsPerKb)
	require.Len(t, start.View.Result.Areas, 1)
	assert.Equal(t, "area1", start.View.Result.Areas[0].ID)
	assert.Equal(t, "1,2,3,4", start.View.Result.Areas[0].Coords)

	sent := v.services.lastQuery("draw_alignment.cgi")
	assert.Equal(t, "SO3;supercont2.1", sent.Get("scaffold"))
	assert.Equal(t, "SJ1", sent.Get("orgsSelected"))

	link := v.testQuery(t, "GET", "/view/link", nil)
	assert.Equal(t, want, readBody(t, link))
}

func TestStartMalformedDeepLink(t *testing.T) {
	v := newTestViewer(t, nil)
	expectError(t, "InvalidInput", http.StatusBadRequest,
		v.testQuery(t, "GET", "/?project=Schizos&range=2100-2000", nil))
}

func TestOrganismEdits(t *testing.T) {
	v := newTestViewer(t, nil)
	require.Equal(t, http.StatusOK, v.testQuery(t, "GET", testDeepLink, nil).StatusCode)

	var vr ViewResponse
	resp := v.testQuery(t, "POST", "/view/organisms/SO3/select", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &vr)
	assert.Equal(t, []string{"SJ1", "SO3"}, vr.State.OrganismSelection)

	resp = v.testQuery(t, "POST", "/view/organisms/SJ1/deselect", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &vr)
	assert.Equal(t, []string{"SO3"}, vr.State.OrganismSelection)

	resp = v.testQuery(t, "POST", "/view/order?from=1&to=0", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &vr)
	assert.Equal(t, []string{"SO3", "SJ1"}, vr.State.OrganismOrder)
	assert.Equal(t, []string{"SO3"}, vr.State.OrganismSelection)
}

func TestOrganismEditErrors(t *testing.T) {
	testCases := []struct{ name, path string }{
		{"unknown action", "/view/organisms/SO3/toggle"},
		{"position out of range", "/view/order?from=5&to=0"},
		{"missing position", "/view/order?from=1"},
	}
	v := newTestViewer(t, nil)
	require.Equal(t, http.StatusOK, v.testQuery(t, "GET", testDeepLink, nil).StatusCode)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expectError(t, "InvalidInput", http.StatusBadRequest,
				v.testQuery(t, "POST", tc.path, nil))
		})
	}
}

// sessionCount returns the number of sessions kept.
func (server *Server) sessionCount() int {
	server.mu.Lock()
	defer server.mu.Unlock()
	return len(server.sessions)
}

func TestSessionsBounded(t *testing.T) {
	var server *Server
	v := newTestViewer(t, func(client *backend.Client) *Server {
		server = NewServer(SharedBackend(client), BackendImages(client, false), testLinker)
		server.DefaultProject(testProject)
		server.SessionLimits(time.Hour, 5)
		return server
	})

	// Clients that drop cookies open a session on every start.
	for i := 0; i < 20; i++ {
		resp, err := http.Get(v.url + "/")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}
	assert.Equal(t, 5, server.sessionCount())
}

func TestReadRoutesKeepNoSession(t *testing.T) {
	var server *Server
	v := newTestViewer(t, func(client *backend.Client) *Server {
		server = NewServer(SharedBackend(client), BackendImages(client, false), testLinker)
		server.DefaultProject(testProject)
		return server
	})

	for _, path := range []string{"/view", "/view/link", "/search?term=SJAG"} {
		resp, err := http.Get(v.url + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Empty(t, resp.Cookies(), path)
		resp.Body.Close()
	}
	assert.Equal(t, 0, server.sessionCount())
}

func TestIdleSessionExpires(t *testing.T) {
	var elapsed int64
	start := time.Now()
	var server *Server
	v := newTestViewer(t, func(client *backend.Client) *Server {
		server = NewServer(SharedBackend(client), BackendImages(client, false), testLinker)
		server.DefaultProject(testProject)
		server.SessionLimits(10*time.Minute, 100)
		server.now = func() time.Time {
			return start.Add(time.Duration(atomic.LoadInt64(&elapsed)))
		}
		return server
	})

	require.Equal(t, http.StatusOK, v.testQuery(t, "GET", testDeepLink, nil).StatusCode)
	require.Equal(t, 1, server.sessionCount())

	atomic.StoreInt64(&elapsed, int64(5*time.Minute))
	var vr ViewResponse
	decode(t, v.testQuery(t, "GET", "/view", nil), &vr)
	assert.NotNil(t, vr.Result, "session should still be live")

	atomic.StoreInt64(&elapsed, int64(20*time.Minute))
	vr = ViewResponse{}
	decode(t, v.testQuery(t, "GET", "/view", nil), &vr)
	assert.Nil(t, vr.Result, "idle session should have expired")
	assert.Equal(t, 0, server.sessionCount())
}

func TestScrollAndZoom(t *testing.T) {
	v := newTestViewer(t, nil)
	require.Equal(t, http.StatusOK, v.testQuery(t, "GET", testDeepLink, nil).StatusCode)

	resp := v.testQuery(t, "POST", "/view/scroll/right", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var vr ViewResponse
	decode(t, resp, &vr)
	assert.Equal(t, "3000-3100", vr.State.Range)
	assert.Equal(t, "right", v.services.lastQuery("draw_alignment.cgi").Get("scroll_direction"))

	resp = v.testQuery(t, "POST", "/view/zoom/in", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sent := v.services.lastQuery("draw_alignment.cgi")
	assert.Equal(t, "in", sent.Get("zoom_direction"))
	assert.Equal(t, "none", sent.Get("scroll_direction"))
	assert.Equal(t, "3000-3100", sent.Get("range"))
}

func TestInvalidDirections(t *testing.T) {
	testCases := []struct{ name, path string }{
		{"zoom as scroll", "/view/scroll/in"},
		{"scroll as zoom", "/view/zoom/left"},
		{"unknown", "/view/zoom/sideways"},
	}
	v := newTestViewer(t, nil)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expectError(t, "InvalidInput", http.StatusBadRequest,
				v.testQuery(t, "POST", tc.path, nil))
		})
	}
}

func TestNavigate(t *testing.T) {
	v := newTestViewer(t, nil)
	resp := v.testQuery(t, "POST", "/view/navigate?gene=SJAG_01234", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var vr ViewResponse
	decode(t, resp, &vr)
	assert.Equal(t, "1-27050", vr.State.Range)
	assert.Equal(t, "SJ1;supercont5.2", vr.State.Scaffold)
	assert.Equal(t, testProject, v.services.lastQuery("get_gene_coordinates.cgi").Get("project"))
}

func TestNavigateErrors(t *testing.T) {
	v := newTestViewer(t, nil)
	expectError(t, "InvalidInput", http.StatusBadRequest,
		v.testQuery(t, "POST", "/view/navigate", nil))
	expectError(t, "NotFound", http.StatusNotFound,
		v.testQuery(t, "POST", "/view/navigate?gene=SJAG_99999", nil))
}

func TestApplyForm(t *testing.T) {
	v := newTestViewer(t, nil)
	form := url.Values{
		"project":        {testProject},
		"orgsOrder":      {"SJ1,SO3"},
		"orgsSelected":   {"SO3"},
		"scaffold":       {"SO3;supercont2.1"},
		"range":          {"10-20"},
		"zoom_direction": {"out"},
	}
	resp := v.testQuery(t, "POST", "/view", form)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "out", v.services.lastQuery("draw_alignment.cgi").Get("zoom_direction"))

	var vr ViewResponse
	decode(t, resp, &vr)
	assert.Equal(t, []string{"SO3"}, vr.State.OrganismSelection)
	assert.Equal(t, 7.5, vr.State.PixelsPerKb)

	resp = v.testQuery(t, "POST", "/view", url.Values{"range": {"10-20"}, "scaffold": {"SO3;supercont2.1"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "none", v.services.lastQuery("draw_alignment.cgi").Get("zoom_direction"))
	assert.Equal(t, testProject, v.services.lastQuery("draw_alignment.cgi").Get("project"))
}

func TestApplyInvalidForm(t *testing.T) {
	testCases := []struct {
		name string
		form url.Values
	}{
		{"backwards range", url.Values{"range": {"20-10"}}},
		{"malformed scaffold", url.Values{"scaffold": {"SO3"}}},
		{"negative scale", url.Values{"pixelsPerKb": {"-1"}}},
		{"unknown direction", url.Values{"scroll_direction": {"up"}}},
	}
	v := newTestViewer(t, nil)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			expectError(t, "InvalidInput", http.StatusBadRequest,
				v.testQuery(t, "POST", "/view", tc.form))
		})
	}
}

func TestExport(t *testing.T) {
	v := newTestViewer(t, nil)
	require.Equal(t, http.StatusOK, v.testQuery(t, "GET", testDeepLink, nil).StatusCode)

	resp := v.testQuery(t, "POST", "/view/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result ResultModel
	decode(t, resp, &result)
	assert.Equal(t, "sybil.1.svg", result.ImageFile)
	assert.Equal(t, "svg", v.services.lastQuery("draw_alignment.cgi").Get("export_as"))

	// The exported drawing is not the result shown in the panel.
	panel := readBody(t, v.testQuery(t, "GET", "/view/panel", nil))
	assert.Contains(t, panel, `src="/image/sybil.1.png"`)
}

func TestPanel(t *testing.T) {
	v := newTestViewer(t, nil)
	expectError(t, "NotFound", http.StatusNotFound, v.testQuery(t, "GET", "/view/panel", nil))

	require.Equal(t, http.StatusOK, v.testQuery(t, "GET", testDeepLink, nil).StatusCode)
	resp := v.testQuery(t, "GET", "/view/panel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	panel := readBody(t, resp)
	assert.Contains(t, panel, `<area id="area1" shape="rect" coords="1,2,3,4" title="SJAG_01234">`)
	assert.Contains(t, panel, `usemap="#featureMap"`)
}

func TestSearch(t *testing.T) {
	v := newTestViewer(t, nil)
	resp := v.testQuery(t, "GET", "/search?term=SJAG_0123", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var search SearchResponse
	decode(t, resp, &search)
	assert.Equal(t, []string{"SJAG_01234", "SJAG_01235"}, search.Matches)

	sent := v.services.lastQuery("search_genomes.cgi")
	assert.Equal(t, testProject, sent.Get("project"))
	assert.Equal(t, "SJAG_0123", sent.Get("term"))
}

func TestRegionsHTML(t *testing.T) {
	v := newTestViewer(t, nil)

	tabular := readBody(t, v.testQuery(t, "GET", "/regions?layout=tabular", nil))
	assert.Contains(t, tabular, `id="roi_row_1"`)
	assert.Contains(t, tabular, "Mating type locus")

	graphical := readBody(t, v.testQuery(t, "GET", "/regions?layout=", nil))
	assert.Contains(t, graphical, `class="alignment_example"`)

	expectError(t, "InvalidInput", http.StatusBadRequest,
		v.testQuery(t, "GET", "/regions?layout=grid", nil))
}

func TestSaveRegion(t *testing.T) {
	v := newTestViewer(t, nil)
	resp := v.testQuery(t, "POST", "/regions", url.Values{"label": {"Telomere"}, "description": {"left end"}})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "left end", v.services.lastQuery("save_roi.cgi").Get("roi_save_desc"))
	assert.Equal(t, []string{"Telomere"}, v.services.saved)

	expectError(t, "InvalidInput", http.StatusBadRequest,
		v.testQuery(t, "POST", "/regions", url.Values{"description": {"no label"}}))
}

func TestLoadRegion(t *testing.T) {
	v := newTestViewer(t, nil)
	resp := v.testQuery(t, "POST", "/regions/roi1/load", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var vr ViewResponse
	decode(t, resp, &vr)
	assert.Equal(t, "5000-9000", vr.State.Range)
	assert.Equal(t, "SO3;supercont2.1", vr.State.Scaffold)
	assert.Equal(t, []string{"SO3"}, vr.State.OrganismSelection)
	assert.Equal(t, int64(500), vr.State.Flank)

	expectError(t, "NotFound", http.StatusNotFound,
		v.testQuery(t, "POST", "/regions/roi9/load", nil))
}

func TestImage(t *testing.T) {
	v := newTestViewer(t, nil)
	resp := v.testQuery(t, "GET", "/image/sybil.1.png", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	assert.Equal(t, "PNG", readBody(t, resp))

	expectError(t, "NotFound", http.StatusNotFound,
		v.testQuery(t, "GET", "/image/missing.png", nil))
	expectError(t, "InvalidInput", http.StatusBadRequest,
		v.testQuery(t, "GET", "/image/a..png", nil))
}

func TestBackendUnavailable(t *testing.T) {
	v := newTestViewer(t, func(*backend.Client) *Server {
		failing, err := backend.NewClient("http://backend.example/",
			backend.WithHTTPClient(&http.Client{Transport: fixedStatus(http.StatusInternalServerError)}))
		require.NoError(t, err)
		return NewServer(SharedBackend(failing), BackendImages(failing, false), testLinker)
	})
	expectError(t, "BackendUnavailable", http.StatusBadGateway,
		v.testQuery(t, "GET", "/search?term=SJAG", nil))
}

func TestForwardingBackend(t *testing.T) {
	v := newTestViewer(t, func(client *backend.Client) *Server {
		return NewServer(ForwardingBackend(client), BackendImages(client, true), testLinker)
	})
	expectError(t, "InvalidAuthentication", http.StatusUnauthorized,
		v.testQuery(t, "GET", "/search?term=SJAG", nil))

	req, err := http.NewRequest("GET", v.url+"/search?term=SJAG", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer abc123")
	resp, err := v.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bearer abc123", v.services.auth)
}

func TestOriginForwarded(t *testing.T) {
	v := newTestViewer(t, nil)
	req, err := http.NewRequest("GET", v.url+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.org")
	resp, err := v.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://example.org", resp.Header.Get("Access-Control-Allow-Origin"))
}

// This test ensures that the undocumented error handling behaviour of the GCS
// storage client does not change.
func TestGCSImageErrors(t *testing.T) {
	testCases := []struct {
		name       string
		transport  http.RoundTripper
		statusCode int
	}{
		{"unauthorized", fixedStatus(http.StatusUnauthorized), http.StatusUnauthorized},
		{"forbidden", fixedStatus(http.StatusForbidden), http.StatusForbidden},
		{"not found", fixedStatus(http.StatusNotFound), http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gcs, err := storage.NewClient(context.Background(), option.WithHTTPClient(&http.Client{Transport: tc.transport}))
			if err != nil {
				t.Fatalf("Failed to create storage client: %v", err)
			}
			images := func(*http.Request) (ImageStore, error) {
				return GCSImages{gcs, "bucket", "images/"}, nil
			}
			v := newTestViewer(t, func(client *backend.Client) *Server {
				return NewServer(SharedBackend(client), images, testLinker)
			})
			resp := v.testQuery(t, "GET", "/image/sybil.1.png", nil)
			if got, want := resp.StatusCode, tc.statusCode; got != want {
				t.Errorf("Wrong status code: got %v, want %v", got, want)
			}
		})
	}
}

func TestGCSImagesFromBearerToken(t *testing.T) {
	stores := &GCSImageStores{Bucket: "bucket"}
	req := httptest.NewRequest("GET", "/image/x.png", nil)
	if _, err := stores.FromBearerToken(req); err != backend.ErrMissingOrInvalidToken {
		t.Errorf("Wrong error: got %v, want %v", err, backend.ErrMissingOrInvalidToken)
	}
}

type trackedReader struct {
	io.Reader
	closed bool
}

func (r *trackedReader) Close() error {
	r.closed = true
	return nil
}

func TestRequestImagesCloseClient(t *testing.T) {
	gcs, err := storage.NewClient(context.Background(), option.WithHTTPClient(&http.Client{Transport: fixedStatus(http.StatusNotFound)}))
	require.NoError(t, err)
	images := requestImages{GCSImages{gcs, "bucket", "images/"}}
	if _, _, err := images.Open(context.Background(), "sybil.1.png"); err != storage.ErrObjectNotExist {
		t.Errorf("Wrong error: got %v, want %v", err, storage.ErrObjectNotExist)
	}

	gcs, err = storage.NewClient(context.Background(), option.WithHTTPClient(&http.Client{Transport: fixedStatus(http.StatusOK)}))
	require.NoError(t, err)
	image := &trackedReader{Reader: strings.NewReader("PNG")}
	rc := closeClient{image, gcs}
	data, err := ioutil.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "PNG", string(data))
	assert.NoError(t, rc.Close())
	assert.True(t, image.closed, "image reader was not closed")
}

type fixedStatus int

func (code fixedStatus) RoundTrip(*http.Request) (*http.Response, error) {
	return &http.Response{
		Status:     http.StatusText(int(code)),
		StatusCode: int(code),
		Body:       http.NoBody,
	}, nil
}
