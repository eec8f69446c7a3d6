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

// Package view defines the state that determines what the synteny viewer
// renders, and its form and URL encodings.
package view

import (
	"errors"
	"fmt"

	"github.com/sybil-lite/sybil/genomics"
)

// ErrInvalidState is returned by Validate.
var ErrInvalidState = errors.New("invalid view state")

// Direction is a one-shot scroll or zoom request sent with a render.
type Direction string

const (
	None  Direction = "none"
	Left  Direction = "left"
	Right Direction = "right"
	In    Direction = "in"
	Out   Direction = "out"
)

// ParseDirection accepts the names of the Direction constants.  The empty
// string is None.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case "":
		return None, nil
	case None, Left, Right, In, Out:
		return d, nil
	}
	return None, fmt.Errorf("unknown direction %q", s)
}

// IsScroll reports whether d moves the view sideways.
func (d Direction) IsScroll() bool { return d == Left || d == Right }

// IsZoom reports whether d changes the scale of the view.
func (d Direction) IsZoom() bool { return d == In || d == Out }

// ExportFormat selects the output of the renderer.  The empty format is the
// interactive PNG view.
type ExportFormat string

const (
	Interactive ExportFormat = ""
	SVG         ExportFormat = "svg"
)

// State is everything that determines a rendered synteny view.  States are
// values: the edit methods return modified copies and never share slices
// with the receiver.
type State struct {
	Project string

	// OrganismOrder is the top to bottom order of organisms in the image.
	OrganismOrder []string
	// OrganismSelection holds the enabled organisms, in OrganismOrder order.
	OrganismSelection []string

	Scaffold genomics.Scaffold
	Range    genomics.Interval

	// PixelsPerKb is the scale chosen by the renderer.  Zero lets the
	// renderer pick one.
	PixelsPerKb float64
	// Flank is the region padding recorded with saved regions.
	Flank int64

	Scroll Direction
	Zoom   Direction
	Export ExportFormat
}

// Clone returns a copy of s that shares no memory with it.
func (s State) Clone() State {
	s.OrganismOrder = append([]string(nil), s.OrganismOrder...)
	s.OrganismSelection = append([]string(nil), s.OrganismSelection...)
	return s
}

// Validate checks the invariants of s.
func (s State) Validate() error {
	if !s.Range.Valid() {
		return fmt.Errorf("%w: range %s has start after end", ErrInvalidState, s.Range)
	}
	if s.PixelsPerKb < 0 {
		return fmt.Errorf("%w: negative pixels per kb %v", ErrInvalidState, s.PixelsPerKb)
	}
	order := make(map[string]bool, len(s.OrganismOrder))
	for _, org := range s.OrganismOrder {
		if order[org] {
			return fmt.Errorf("%w: organism %q listed twice", ErrInvalidState, org)
		}
		order[org] = true
	}
	for _, org := range s.OrganismSelection {
		if !order[org] {
			return fmt.Errorf("%w: selected organism %q is not in the organism order", ErrInvalidState, org)
		}
	}
	return nil
}

// IsSelected reports whether org is enabled.
func (s State) IsSelected(org string) bool {
	return indexOf(s.OrganismSelection, org) >= 0
}

// Select returns s with org enabled.  Unknown organisms are appended to the
// organism order.
func (s State) Select(org string) State {
	s = s.Clone()
	if indexOf(s.OrganismOrder, org) < 0 {
		s.OrganismOrder = append(s.OrganismOrder, org)
	}
	if !s.IsSelected(org) {
		s.OrganismSelection = append(s.OrganismSelection, org)
	}
	s.OrganismSelection = s.orderedSelection()
	return s
}

// Deselect returns s with org disabled.  The organism keeps its position in
// the organism order.
func (s State) Deselect(org string) State {
	s = s.Clone()
	if i := indexOf(s.OrganismSelection, org); i >= 0 {
		s.OrganismSelection = append(s.OrganismSelection[:i], s.OrganismSelection[i+1:]...)
	}
	return s
}

// MoveOrganism returns s with the organism at position from moved to
// position to of the organism order.
func (s State) MoveOrganism(from, to int) (State, error) {
	n := len(s.OrganismOrder)
	if from < 0 || from >= n || to < 0 || to >= n {
		return s, fmt.Errorf("moving organism %d to %d: out of range for %d organisms", from, to, n)
	}
	s = s.Clone()
	org := s.OrganismOrder[from]
	s.OrganismOrder = append(s.OrganismOrder[:from], s.OrganismOrder[from+1:]...)
	s.OrganismOrder = append(s.OrganismOrder[:to], append([]string{org}, s.OrganismOrder[to:]...)...)
	s.OrganismSelection = s.orderedSelection()
	return s, nil
}

// WithOrganisms returns s with the given organism order and selection.
// Selected organisms missing from order are appended to it.
func (s State) WithOrganisms(order, selected []string) State {
	s.OrganismOrder = append([]string(nil), order...)
	s.OrganismSelection = nil
	for _, org := range selected {
		s = s.Select(org)
	}
	return s
}

// orderedSelection returns the selection sorted by organism order.
func (s State) orderedSelection() []string {
	var selected []string
	for _, org := range s.OrganismOrder {
		if indexOf(s.OrganismSelection, org) >= 0 {
			selected = append(selected, org)
		}
	}
	return selected
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
