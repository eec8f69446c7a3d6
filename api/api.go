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

// Package api exposes synteny viewer sessions over HTTP.
//
// Each browser session owns a controller.Controller, identified by a cookie.
// The routes registered by Server.Export drive that controller: they render
// views, move and zoom them, navigate to genes, and list, save and recall
// regions of interest.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sybil-lite/sybil/analytics"
	"github.com/sybil-lite/sybil/backend"
	"github.com/sybil-lite/sybil/controller"
	"github.com/sybil-lite/sybil/genomics"
	"github.com/sybil-lite/sybil/navigate"
	"github.com/sybil-lite/sybil/page"
	"github.com/sybil-lite/sybil/view"
)

const (
	sessionCookie = "sybil_session"
	imagePrefix   = "/image/"

	maxFormSize = 1 << 20

	// DefaultSessionTTL and DefaultMaxSessions bound the sessions a Server
	// keeps unless SessionLimits is called.
	DefaultSessionTTL  = 30 * time.Minute
	DefaultMaxSessions = 10000

	sweepInterval = time.Minute
)

var (
	errNoResult        = errors.New("no view has been rendered")
	errInvalidImage    = errors.New("invalid or unspecified image name")
	errMissingGene     = errors.New("no gene specified")
	errMissingLabel    = errors.New("no label specified")
	errUnknownRegion   = errors.New("no such region of interest")
	errInvalidFormType = errors.New("unsupported form content type")
	errMissingOrganism = errors.New("no organism specified")
)

// Server serves viewer sessions.  Must be created with NewServer.
type Server struct {
	newBackend    NewBackendFunc
	newImageStore NewImageStoreFunc
	linker        view.Linker
	project       string
	layout        page.Layout

	sessionTTL  time.Duration
	maxSessions int
	now         func() time.Time

	mu        sync.Mutex
	sessions  map[string]*session
	lastSweep time.Time
}

// NewServer returns a new Server.  The server calls newBackend and
// newImageStore on each request to determine which backend client and image
// store to use.  Shareable URLs are built with linker; when linker has no
// host the host of the request that opened the session is used.
func NewServer(newBackend NewBackendFunc, newImageStore NewImageStoreFunc, linker view.Linker) *Server {
	return &Server{
		newBackend:    newBackend,
		newImageStore: newImageStore,
		linker:        linker,
		layout:        page.Graphical,
		sessionTTL:    DefaultSessionTTL,
		maxSessions:   DefaultMaxSessions,
		now:           time.Now,
		sessions:      make(map[string]*session),
	}
}

// SessionLimits sets how long an idle session is kept and how many sessions
// are kept at most.  Non-positive values leave the current limit in place.
func (server *Server) SessionLimits(ttl time.Duration, limit int) {
	if ttl > 0 {
		server.sessionTTL = ttl
	}
	if limit > 0 {
		server.maxSessions = limit
	}
}

// DefaultProject sets the project of new sessions.
func (server *Server) DefaultProject(project string) {
	server.project = project
}

// RegionLayout sets the layout used for region listings that ask for HTML
// without naming a layout.
func (server *Server) RegionLayout(layout page.Layout) {
	server.layout = layout
}

// Export registers the viewer routes with router.
func (server *Server) Export(router gin.IRouter) {
	router.Use(forwardOrigin)

	router.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/", server.handle(server.serveStart))

	router.GET("/view", server.read(server.serveView))
	router.POST("/view", server.handle(server.serveApply))
	router.POST("/view/scroll/:direction", server.handle(server.serveScroll))
	router.POST("/view/zoom/:direction", server.handle(server.serveZoom))
	router.POST("/view/navigate", server.handle(server.serveNavigate))
	router.POST("/view/export", server.handle(server.export))
	router.POST("/view/organisms/:org/:action", server.handle(server.serveOrganism))
	router.POST("/view/order", server.handle(server.serveOrder))
	router.GET("/view/link", server.read(server.serveLink))
	router.GET("/view/panel", server.read(server.servePanel))

	router.GET("/search", server.read(server.serveSearch))

	router.GET("/regions", server.handle(server.serveRegions))
	router.POST("/regions", server.handle(server.serveSaveRegion))
	router.POST("/regions/:id/load", server.handle(server.serveLoadRegion))

	router.GET(imagePrefix+":name", server.serveImage)
}

// session is the state kept for one browser session.
type session struct {
	controller *controller.Controller
	display    *sessionDisplay

	// Guarded by Server.mu.
	lastUsed time.Time
}

type sessionHandler func(*gin.Context, *session) error

// handle adapts a session handler to gin.  Requests without a session start
// one.
func (server *Server) handle(h sessionHandler) gin.HandlerFunc {
	return server.serve(h, true)
}

// read adapts a session handler that only reads the session.  Requests
// without a session are served from a fresh one that is not kept.
func (server *Server) read(h sessionHandler) gin.HandlerFunc {
	return server.serve(h, false)
}

// serve places the backend for the request in the request context, where
// the session controller finds it, and calls h.
func (server *Server) serve(h sessionHandler, keep bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		b, err := server.newBackend(c.Request)
		if err != nil {
			writeError(c.Writer, classify("creating backend client", err))
			return
		}
		c.Request = c.Request.WithContext(withBackend(c.Request.Context(), b))

		if err := h(c, server.session(c, keep)); err != nil {
			writeError(c.Writer, classify(c.Request.URL.Path, err))
		}
	}
}

// session returns the live session named by the request cookie.  Otherwise
// it starts a new one, which is kept and named in a cookie only when keep is
// set.
func (server *Server) session(c *gin.Context, keep bool) *session {
	server.mu.Lock()
	defer server.mu.Unlock()

	now := server.now()
	if id, err := c.Cookie(sessionCookie); err == nil {
		if s, ok := server.sessions[id]; ok {
			if now.Sub(s.lastUsed) <= server.sessionTTL {
				s.lastUsed = now
				return s
			}
			delete(server.sessions, id)
		}
	}

	s := server.newSession(c)
	if !keep {
		return s
	}
	server.evict(now)
	s.lastUsed = now
	id := uuid.New().String()
	server.sessions[id] = s
	c.SetCookie(sessionCookie, id, 0, "/", "", c.Request.TLS != nil, true)
	return s
}

// evict drops expired sessions and then, while the server is full, the
// least recently used one.  server.mu must be held.
func (server *Server) evict(now time.Time) {
	if now.Sub(server.lastSweep) >= sweepInterval || len(server.sessions) >= server.maxSessions {
		for id, s := range server.sessions {
			if now.Sub(s.lastUsed) > server.sessionTTL {
				delete(server.sessions, id)
			}
		}
		server.lastSweep = now
	}
	for len(server.sessions) >= server.maxSessions {
		var oldest string
		for id, s := range server.sessions {
			if oldest == "" || s.lastUsed.Before(server.sessions[oldest].lastUsed) {
				oldest = id
			}
		}
		delete(server.sessions, oldest)
	}
}

func (server *Server) newSession(c *gin.Context) *session {
	linker := server.linker
	if linker.Host == "" {
		linker.Host = c.Request.Host
	}
	display := &sessionDisplay{}
	s := &session{controller: controller.New(contextBackend{}, display, linker), display: display}
	if server.project != "" {
		s.controller.Update(func(state view.State) (view.State, error) {
			state.Project = server.project
			return state, nil
		})
	}
	return s
}

// StartResponse is returned when a session opens the viewer page.  A
// deep-linked page carries View, any other page carries Regions.
type StartResponse struct {
	DeepLinked bool             `json:"deep_linked"`
	View       *ViewResponse    `json:"view,omitempty"`
	Regions    *RegionsResponse `json:"regions,omitempty"`
}

func (server *Server) serveStart(c *gin.Context, s *session) error {
	ctx := c.Request.Context()
	track := analytics.TrackerFromContext(ctx)

	raw := c.Request.URL.RawQuery
	deepLinked := view.HasTracked(raw)
	if deepLinked {
		track(analytics.Pageview("/"+view.DefaultScript, "Shared view"))
		state, err := view.ParseQuery(raw)
		if err != nil {
			return newInvalidInputError("parsing view link", err)
		}
		if state.Project == "" {
			state.Project = server.project
		}
		if err := s.controller.ApplyState(state); err != nil {
			return newInvalidInputError("applying view link", err)
		}
	} else {
		track(analytics.Pageview("/", "Viewer"))
	}

	if err := s.controller.Start(ctx, deepLinked); err != nil {
		return err
	}

	resp := StartResponse{DeepLinked: deepLinked}
	if deepLinked {
		v := s.viewResponse()
		resp.View = &v
	} else {
		regions := NewRegionsResponse(s.controller.CaptureState().Project, s.display.lastRegions())
		resp.Regions = &regions
	}
	writeJSON(c.Writer, http.StatusOK, resp)
	return nil
}

func (server *Server) serveView(c *gin.Context, s *session) error {
	writeJSON(c.Writer, http.StatusOK, s.viewResponse())
	return nil
}

// serveApply replaces the session state with the submitted form and renders
// it.  The one-shot fields of the form (scroll_direction, zoom_direction and
// export_as) select the kind of render.
func (server *Server) serveApply(c *gin.Context, s *session) error {
	ctx := c.Request.Context()
	track := analytics.TrackerFromContext(ctx)
	track(analytics.Event(analytics.CategoryView, "Render Request Received", "", nil))

	state, err := stateFromRequest(c.Request)
	if err != nil {
		return newInvalidInputError("parsing view form", err)
	}
	if state.Project == "" {
		state.Project = server.project
	}
	if err := s.controller.ApplyState(state); err != nil {
		return newInvalidInputError("applying view form", err)
	}

	switch {
	case state.Export == view.SVG:
		return server.export(c, s)
	case state.Scroll.IsScroll():
		_, err = s.controller.Scroll(ctx, state.Scroll)
	case state.Zoom.IsZoom():
		_, err = s.controller.Zoom(ctx, state.Zoom)
	default:
		_, err = s.controller.Submit(ctx)
	}
	if err != nil {
		return err
	}
	writeJSON(c.Writer, http.StatusOK, s.viewResponse())
	return nil
}

func (server *Server) serveScroll(c *gin.Context, s *session) error {
	d, err := view.ParseDirection(c.Param("direction"))
	if err != nil || !d.IsScroll() {
		return newInvalidInputError("parsing scroll direction", fmt.Errorf("%q is not left or right", c.Param("direction")))
	}
	ctx := c.Request.Context()
	analytics.TrackerFromContext(ctx)(analytics.Event(analytics.CategoryView, "Scroll", string(d), nil))
	if _, err := s.controller.Scroll(ctx, d); err != nil {
		return err
	}
	writeJSON(c.Writer, http.StatusOK, s.viewResponse())
	return nil
}

func (server *Server) serveZoom(c *gin.Context, s *session) error {
	d, err := view.ParseDirection(c.Param("direction"))
	if err != nil || !d.IsZoom() {
		return newInvalidInputError("parsing zoom direction", fmt.Errorf("%q is not in or out", c.Param("direction")))
	}
	ctx := c.Request.Context()
	analytics.TrackerFromContext(ctx)(analytics.Event(analytics.CategoryView, "Zoom", string(d), nil))
	if _, err := s.controller.Zoom(ctx, d); err != nil {
		return err
	}
	writeJSON(c.Writer, http.StatusOK, s.viewResponse())
	return nil
}

func (server *Server) serveNavigate(c *gin.Context, s *session) error {
	gene := strings.TrimSpace(c.Query("gene"))
	if gene == "" {
		return newInvalidInputError("parsing navigation", errMissingGene)
	}
	ctx := c.Request.Context()
	analytics.TrackerFromContext(ctx)(analytics.Event(analytics.CategoryView, "Navigate To Gene", "", nil))
	if _, err := s.controller.NavigateToGene(ctx, gene); err != nil {
		return err
	}
	writeJSON(c.Writer, http.StatusOK, s.viewResponse())
	return nil
}

func (server *Server) export(c *gin.Context, s *session) error {
	ctx := c.Request.Context()
	analytics.TrackerFromContext(ctx)(analytics.Event(analytics.CategoryView, "Export SVG", "", nil))
	result, err := s.controller.ExportSVG(ctx)
	if err != nil {
		return err
	}
	writeJSON(c.Writer, http.StatusOK, NewResultModel(result))
	return nil
}

// serveOrganism enables or disables one organism of the view.  The view is
// not rendered.
func (server *Server) serveOrganism(c *gin.Context, s *session) error {
	org := strings.TrimSpace(c.Param("org"))
	if org == "" {
		return newInvalidInputError("editing organisms", errMissingOrganism)
	}
	var edit func(view.State) view.State
	switch action := c.Param("action"); action {
	case "select":
		edit = func(state view.State) view.State { return state.Select(org) }
	case "deselect":
		edit = func(state view.State) view.State { return state.Deselect(org) }
	default:
		return newInvalidInputError("editing organisms", fmt.Errorf("%q is not select or deselect", action))
	}
	if err := s.controller.Update(func(state view.State) (view.State, error) {
		return edit(state), nil
	}); err != nil {
		return newInvalidInputError("editing organisms", err)
	}
	writeJSON(c.Writer, http.StatusOK, s.viewResponse())
	return nil
}

// serveOrder moves the organism at position from to position to of the
// organism order.  The view is not rendered.
func (server *Server) serveOrder(c *gin.Context, s *session) error {
	from, err := strconv.Atoi(c.Query("from"))
	if err != nil {
		return newInvalidInputError("parsing from", err)
	}
	to, err := strconv.Atoi(c.Query("to"))
	if err != nil {
		return newInvalidInputError("parsing to", err)
	}
	if err := s.controller.Update(func(state view.State) (view.State, error) {
		return state.MoveOrganism(from, to)
	}); err != nil {
		return newInvalidInputError("reordering organisms", err)
	}
	writeJSON(c.Writer, http.StatusOK, s.viewResponse())
	return nil
}

func (server *Server) serveLink(c *gin.Context, s *session) error {
	c.String(http.StatusOK, s.controller.ShareableURL())
	return nil
}

func (server *Server) servePanel(c *gin.Context, s *session) error {
	result := s.display.lastResult()
	if result == nil {
		return newNotFoundError("drawing result panel", errNoResult)
	}
	var buf bytes.Buffer
	if err := page.ResultPanel(&buf, imagePath(result.ImageFile), result); err != nil {
		return fmt.Errorf("rendering result panel: %v", err)
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	return nil
}

func (server *Server) serveSearch(c *gin.Context, s *session) error {
	ctx := c.Request.Context()
	analytics.TrackerFromContext(ctx)(analytics.Event(analytics.CategorySearch, "Search Request Received", "", nil))
	term := c.Query("term")
	matches, err := s.controller.Search(ctx, term)
	if err != nil {
		return err
	}
	count := int64(len(matches))
	analytics.TrackerFromContext(ctx)(analytics.Event(analytics.CategorySearch, "Search Match Count", "", &count))
	writeJSON(c.Writer, http.StatusOK, SearchResponse{Term: term, Matches: nonNil(matches)})
	return nil
}

// serveRegions lists the regions of the session project.  With a layout
// parameter the listing is an HTML fragment; an empty layout selects the
// server default.
func (server *Server) serveRegions(c *gin.Context, s *session) error {
	layout, html := c.GetQuery("layout")
	if html {
		if layout == "" {
			layout = string(server.layout)
		}
		if _, err := page.ParseLayout(layout); err != nil {
			return newInvalidInputError("parsing layout", err)
		}
	}

	ctx := c.Request.Context()
	analytics.TrackerFromContext(ctx)(analytics.Event(analytics.CategoryRegions, "List Regions", "", nil))
	regions, err := s.controller.Regions(ctx)
	if err != nil {
		return err
	}

	if !html {
		writeJSON(c.Writer, http.StatusOK, NewRegionsResponse(s.controller.CaptureState().Project, regions))
		return nil
	}
	var buf bytes.Buffer
	if err := page.Regions(&buf, page.Layout(layout), regions); err != nil {
		return fmt.Errorf("rendering regions: %v", err)
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	return nil
}

func (server *Server) serveSaveRegion(c *gin.Context, s *session) error {
	label := strings.TrimSpace(c.PostForm("label"))
	if label == "" {
		return newInvalidInputError("saving region", errMissingLabel)
	}
	ctx := c.Request.Context()
	analytics.TrackerFromContext(ctx)(analytics.Event(analytics.CategoryRegions, "Save Region", "", nil))
	if err := s.controller.SaveRegion(ctx, label, c.PostForm("description")); err != nil {
		return err
	}
	writeJSON(c.Writer, http.StatusCreated, map[string]interface{}{
		"label": label,
		"state": newStateModel(s.controller.CaptureState()),
	})
	return nil
}

// serveLoadRegion recalls a region of the last listing, listing the regions
// again when the region is not in it.
func (server *Server) serveLoadRegion(c *gin.Context, s *session) error {
	ctx := c.Request.Context()
	id := c.Param("id")
	analytics.TrackerFromContext(ctx)(analytics.Event(analytics.CategoryRegions, "Load Region", "", nil))

	r, ok := findRegion(s.display.lastRegions(), id)
	if !ok {
		regions, err := s.controller.Regions(ctx)
		if err != nil {
			return err
		}
		if r, ok = findRegion(regions, id); !ok {
			return newNotFoundError(fmt.Sprintf("loading region %s", id), errUnknownRegion)
		}
	}
	if _, err := s.controller.LoadRegion(ctx, r); err != nil {
		return err
	}
	writeJSON(c.Writer, http.StatusOK, s.viewResponse())
	return nil
}

func findRegion(regions []backend.Region, id string) (backend.Region, bool) {
	for _, r := range regions {
		if r.ID == id {
			return r, true
		}
	}
	return backend.Region{}, false
}

// serveImage copies a rendered image from the image store.  Images are not
// tied to a session.
func (server *Server) serveImage(c *gin.Context) {
	name := c.Param("name")
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "..") {
		writeError(c.Writer, newInvalidInputError("parsing image name", errInvalidImage))
		return
	}

	store, err := server.newImageStore(c.Request)
	if err != nil {
		writeError(c.Writer, newStorageError("creating image store", err))
		return
	}

	image, contentType, err := store.Open(c.Request.Context(), name)
	if err != nil {
		writeError(c.Writer, newStorageError("opening image", err))
		return
	}
	defer image.Close()

	if contentType == "" {
		contentType = "image/png"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, image); err != nil {
		log.Printf("Failed to copy image %s: %v", name, err)
	}
}

// viewResponse describes the current state.  Once a view has been drawn the
// link is the one published with it.
func (s *session) viewResponse() ViewResponse {
	result := s.display.lastResult()
	link := s.controller.ShareableURL()
	if result != nil {
		link = s.controller.LastLink()
	}
	return NewViewResponse(s.controller.CaptureState(), link, result)
}

// stateFromRequest parses the view form from a urlencoded request body, or
// from the query string of requests without one.  Shareable URLs carry ';'
// unescaped, which url.ParseQuery rejects, so the form is parsed by view.
func stateFromRequest(req *http.Request) (view.State, error) {
	if req.Body == nil || req.ContentLength == 0 {
		return view.ParseQuery(req.URL.RawQuery)
	}
	if ct := req.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		return view.State{}, fmt.Errorf("%v: %q", errInvalidFormType, ct)
	}
	body, err := ioutil.ReadAll(io.LimitReader(req.Body, maxFormSize))
	if err != nil {
		return view.State{}, fmt.Errorf("reading form: %v", err)
	}
	return view.ParseQuery(string(body))
}

// sessionDisplay keeps the last published result and region listing of a
// session so that later requests can read them back.
type sessionDisplay struct {
	mu      sync.Mutex
	result  *backend.RenderResult
	regions []backend.Region
}

func (d *sessionDisplay) ShowProgress() {}
func (d *sessionDisplay) HideProgress() {}

func (d *sessionDisplay) Alert(message string) {
	log.Printf("Session request failed: %s", message)
}

func (d *sessionDisplay) ShowResult(result *backend.RenderResult, _ view.State, _ string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.result = result
}

func (d *sessionDisplay) ShowRegions(regions []backend.Region) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.regions = regions
}

func (d *sessionDisplay) lastResult() *backend.RenderResult {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.result
}

func (d *sessionDisplay) lastRegions() []backend.Region {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regions
}

// classify turns the errors of the viewer packages into the named errors of
// the API.  Errors it does not recognize are returned unchanged.
func classify(context string, err error) error {
	var aerr *apiError
	if errors.As(err, &aerr) {
		return aerr
	}

	switch {
	case errors.Is(err, controller.ErrSuperseded):
		return newSupersededError(err)
	case errors.Is(err, navigate.ErrInvalidInterval):
		return newInvalidRangeError(err)
	case errors.Is(err, view.ErrInvalidState), errors.Is(err, genomics.ErrMalformed):
		return newInvalidInputError(context, err)
	case errors.Is(err, backend.ErrMissingOrInvalidToken):
		return newInvalidAuthenticationError(context, err)
	}

	switch {
	case backend.IsStatus(err, http.StatusBadRequest):
		return newInvalidInputError(context, err)
	case backend.IsStatus(err, http.StatusUnauthorized):
		return newInvalidAuthenticationError(context, err)
	case backend.IsStatus(err, http.StatusForbidden):
		return newPermissionDeniedError(context, err)
	case backend.IsStatus(err, http.StatusNotFound):
		return newNotFoundError(context, err)
	}
	var serr *backend.StatusError
	if errors.As(err, &serr) {
		return newBackendUnavailableError(context, err)
	}

	var nerr net.Error
	if errors.As(err, &nerr) {
		return newBackendUnavailableError(context, err)
	}
	return err
}

// apiError is used to capture errors that have been defined in the API.
type apiError struct {
	name  string
	code  int
	cause error
}

func (err *apiError) Error() string {
	return fmt.Sprintf("%s (%d): %v", err.name, err.code, err.cause)
}

func (err *apiError) Unwrap() error {
	return err.cause
}

func newApiError(name string, code int, context string, err error) error {
	return &apiError{name, code, fmt.Errorf("%s: %w", context, err)}
}

func newInvalidAuthenticationError(context string, err error) error {
	return newApiError("InvalidAuthentication", http.StatusUnauthorized, context, err)
}

func newInvalidInputError(context string, err error) error {
	return newApiError("InvalidInput", http.StatusBadRequest, context, err)
}

func newInvalidRangeError(err error) error {
	return &apiError{"InvalidRange", http.StatusBadRequest, err}
}

func newPermissionDeniedError(context string, err error) error {
	return newApiError("PermissionDenied", http.StatusForbidden, context, err)
}

func newNotFoundError(context string, err error) error {
	return newApiError("NotFound", http.StatusNotFound, context, err)
}

func newBackendUnavailableError(context string, err error) error {
	return newApiError("BackendUnavailable", http.StatusBadGateway, context, err)
}

func newSupersededError(err error) error {
	return &apiError{"Superseded", http.StatusConflict, err}
}

// writeError writes either a JSON object or bare HTTP error describing err to
// w.  A JSON object is written only when the error has a name and code defined
// by the API.
func writeError(w http.ResponseWriter, err error) {
	if err, ok := err.(*apiError); ok {
		writeJSON(w, err.code, map[string]interface{}{
			"error":   err.name,
			"message": fmt.Sprintf("%s: %v", http.StatusText(err.code), err.cause),
		})
		return
	}

	writeHTTPError(w, http.StatusInternalServerError, err)
}

func writeHTTPError(w http.ResponseWriter, code int, err error) {
	http.Error(w, fmt.Sprintf("%s: %v", http.StatusText(code), err), code)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Add("Content-type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func forwardOrigin(c *gin.Context) {
	if origin := c.Request.Header.Get("Origin"); origin != "" {
		c.Header("Access-Control-Allow-Origin", origin)
	}
	c.Next()
}
