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

// Package controller owns the view state of a synteny viewer session and
// drives the backend services on behalf of user actions.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sybil-lite/sybil/backend"
	"github.com/sybil-lite/sybil/genomics"
	"github.com/sybil-lite/sybil/navigate"
	"github.com/sybil-lite/sybil/view"
)

// ErrSuperseded is returned for a render response that arrived after a newer
// render request was issued.  The response is discarded.
var ErrSuperseded = errors.New("superseded by a newer request")

// Backend is the set of services a Controller depends on.  *backend.Client
// implements it.
type Backend interface {
	Render(ctx context.Context, s view.State) (*backend.RenderResult, error)
	Feature(ctx context.Context, project, geneID string) (genomics.Feature, error)
	Search(ctx context.Context, project, term string) ([]string, error)
	Regions(ctx context.Context, project string) ([]backend.Region, error)
	SaveRegion(ctx context.Context, s view.State, label, description string) error
}

// Display receives the user-visible effects of controller operations.
type Display interface {
	// ShowProgress is called before a render request is issued.
	ShowProgress()
	// HideProgress is called once the request has completed or failed.
	HideProgress()
	// Alert reports a failed operation.
	Alert(message string)
	// ShowResult publishes a render result along with the state it was
	// drawn from and the shareable URL of that state.
	ShowResult(result *backend.RenderResult, state view.State, link string)
	// ShowRegions publishes a listing of saved regions.
	ShowRegions(regions []backend.Region)
}

// Controller holds the view state of one session.  All mutation of the
// state goes through it.  A Controller is safe for concurrent use, but
// only the response to the most recent render request is applied.
type Controller struct {
	backend Backend
	display Display
	linker  view.Linker

	mu     sync.Mutex
	state  view.State
	issued uint64
	link   string
}

// New returns a Controller with an empty state.
func New(b Backend, d Display, linker view.Linker) *Controller {
	if d == nil {
		d = NopDisplay{}
	}
	c := &Controller{backend: b, display: d, linker: linker}
	c.state = view.State{Scroll: view.None, Zoom: view.None}
	c.link = linker.URL(c.state)
	return c
}

// CaptureState returns a snapshot of the current state.
func (c *Controller) CaptureState() view.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// ApplyState replaces the current state with s.  Directions and export
// format are per request and are not kept.  A render in flight is
// superseded.
func (c *Controller) ApplyState(s view.State) error {
	if err := s.Validate(); err != nil {
		return err
	}
	s = s.Clone()
	s.Scroll, s.Zoom, s.Export = view.None, view.None, view.Interactive
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
	c.issued++
	return nil
}

// Update applies edit to the current state.  A render in flight is
// superseded.
func (c *Controller) Update(edit func(view.State) (view.State, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := edit(c.state.Clone())
	if err != nil {
		return err
	}
	if err := next.Validate(); err != nil {
		return err
	}
	c.state = next
	c.issued++
	return nil
}

// ShareableURL returns the shareable URL of the current state.
func (c *Controller) ShareableURL() string {
	return c.linker.URL(c.CaptureState())
}

// LastLink returns the shareable URL published with the last applied render
// result.
func (c *Controller) LastLink() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.link
}

// Submit renders the current state.  On success the range and scale chosen
// by the renderer become part of the state.  It returns ErrSuperseded,
// leaving the state untouched, if another render was issued while this one
// was in flight.
func (c *Controller) Submit(ctx context.Context) (*backend.RenderResult, error) {
	return c.submit(ctx, func(s view.State) view.State { return s })
}

// Scroll renders the current state moved in direction d.  The direction
// applies to this request only.
func (c *Controller) Scroll(ctx context.Context, d view.Direction) (*backend.RenderResult, error) {
	if !d.IsScroll() {
		return nil, fmt.Errorf("%q is not a scroll direction", d)
	}
	return c.submit(ctx, func(s view.State) view.State {
		s.Scroll = d
		return s
	})
}

// Zoom renders the current state zoomed in direction d.  The direction
// applies to this request only.
func (c *Controller) Zoom(ctx context.Context, d view.Direction) (*backend.RenderResult, error) {
	if !d.IsZoom() {
		return nil, fmt.Errorf("%q is not a zoom direction", d)
	}
	return c.submit(ctx, func(s view.State) view.State {
		s.Zoom = d
		return s
	})
}

// ExportSVG renders the current state as SVG.  The state is not changed and
// the result is not published to the display.
func (c *Controller) ExportSVG(ctx context.Context) (*backend.RenderResult, error) {
	s := c.CaptureState()
	s.Export = view.SVG
	result, err := c.backend.Render(ctx, s)
	if err != nil {
		return nil, c.fail("export the view as SVG", err)
	}
	return result, nil
}

// submit issues a render request for adjust(current state).  The adjustment
// is sent with the request only; the stored state keeps no direction.
func (c *Controller) submit(ctx context.Context, adjust func(view.State) view.State) (*backend.RenderResult, error) {
	c.mu.Lock()
	// ApplyState and Update also advance issued, so a response is applied
	// only to the state its request was drawn from.
	c.issued++
	seq := c.issued
	request := adjust(c.state.Clone())
	c.mu.Unlock()

	c.display.ShowProgress()
	result, err := c.backend.Render(ctx, request)

	c.mu.Lock()
	if seq != c.issued {
		c.mu.Unlock()
		return nil, ErrSuperseded
	}
	if err != nil {
		c.mu.Unlock()
		return nil, c.fail("redraw the alignment panel", err)
	}
	c.state.Range = result.Range
	c.state.PixelsPerKb = result.PixelsPerKb
	next := c.state.Clone()
	c.link = c.linker.URL(next)
	link := c.link
	c.mu.Unlock()

	c.display.ShowResult(result, next, link)
	c.display.HideProgress()
	return result, nil
}

// NavigateToGene moves the view onto the gene with the given ID, keeping the
// current zoom level when the gene fits, and renders it.
func (c *Controller) NavigateToGene(ctx context.Context, geneID string) (*backend.RenderResult, error) {
	project := c.CaptureState().Project
	feature, err := c.backend.Feature(ctx, project, geneID)
	if err != nil {
		return nil, c.fail(fmt.Sprintf("get gene coordinates for %s", geneID), err)
	}
	err = c.Update(func(s view.State) (view.State, error) {
		return navigate.Focus(s, feature)
	})
	if err != nil {
		return nil, c.fail(fmt.Sprintf("navigate to %s", geneID), err)
	}
	return c.Submit(ctx)
}

// Search returns the features of the current project matching term.
func (c *Controller) Search(ctx context.Context, term string) ([]string, error) {
	matches, err := c.backend.Search(ctx, c.CaptureState().Project, term)
	if err != nil {
		return nil, c.fail("search the genomes", err)
	}
	return matches, nil
}

// Regions lists and publishes the saved regions of the current project.
func (c *Controller) Regions(ctx context.Context) ([]backend.Region, error) {
	regions, err := c.backend.Regions(ctx, c.CaptureState().Project)
	if err != nil {
		return nil, c.fail("draw regions of interest", err)
	}
	c.display.ShowRegions(regions)
	return regions, nil
}

// LoadRegion replaces the current state with the one saved in r and renders
// it.
func (c *Controller) LoadRegion(ctx context.Context, r backend.Region) (*backend.RenderResult, error) {
	if err := c.ApplyState(r.State()); err != nil {
		return nil, c.fail(fmt.Sprintf("load region %s", r.ID), err)
	}
	return c.Submit(ctx)
}

// SaveRegion stores the current state as a region of interest.
func (c *Controller) SaveRegion(ctx context.Context, label, description string) error {
	if err := c.backend.SaveRegion(ctx, c.CaptureState(), label, description); err != nil {
		return c.fail("save regions of interest", err)
	}
	return nil
}

// Start performs the initial action of a session.  A deep-linked session
// renders its state straight away; any other session lists the saved
// regions of its project.
func (c *Controller) Start(ctx context.Context, deepLinked bool) error {
	if deepLinked {
		_, err := c.Submit(ctx)
		return err
	}
	c.display.ShowProgress()
	_, err := c.Regions(ctx)
	if err == nil {
		c.display.HideProgress()
	}
	return err
}

// fail reports err to the display and returns it wrapped with action.
func (c *Controller) fail(action string, err error) error {
	err = fmt.Errorf("failed to %s: %w", action, err)
	c.display.Alert(err.Error())
	c.display.HideProgress()
	return err
}

// NopDisplay discards everything.
type NopDisplay struct{}

func (NopDisplay) ShowProgress()                                        {}
func (NopDisplay) HideProgress()                                        {}
func (NopDisplay) Alert(string)                                         {}
func (NopDisplay) ShowResult(*backend.RenderResult, view.State, string) {}
func (NopDisplay) ShowRegions([]backend.Region)                         {}
