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

package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/sybil-lite/sybil/genomics"
	"github.com/sybil-lite/sybil/view"
)

// MapPoint is a clickable rectangle of a rendered image.
type MapPoint struct {
	Label          string
	X1, Y1, X2, Y2 int
}

// RenderResult is the response of the rendering backend.
type RenderResult struct {
	// ImageFile names the rendered image on the backend.
	ImageFile string
	// Range is the range actually drawn; the backend applies scrolling,
	// zooming and clamping.
	Range       genomics.Interval
	PixelsPerKb float64
	MapPoints   []MapPoint
}

// Region is a saved region of interest.
type Region struct {
	ID                string
	Project           string
	Label             string
	Description       string
	OrganismOrder     []string
	OrganismSelection []string
	Scaffold          genomics.Scaffold
	Range             genomics.Interval
	Flank             int64
	PixelsPerKb       float64
}

// State returns the view state recorded by the region.  Every organism in
// the region's selection is enabled.
func (r Region) State() view.State {
	s := view.State{
		Project:     r.Project,
		Scaffold:    r.Scaffold,
		Range:       r.Range,
		Flank:       r.Flank,
		PixelsPerKb: r.PixelsPerKb,
		Scroll:      view.None,
		Zoom:        view.None,
	}
	return s.WithOrganisms(r.OrganismOrder, r.OrganismSelection)
}

type renderResponse struct {
	ImageFile   string     `json:"image_file"`
	Range       string     `json:"range"`
	PixelsPerKb flexFloat  `json:"pixels_per_kb"`
	MapPoints   []mapPoint `json:"map_points"`
}

type mapPoint struct {
	Label string  `json:"label"`
	X1    flexInt `json:"x1"`
	Y1    flexInt `json:"y1"`
	X2    flexInt `json:"x2"`
	Y2    flexInt `json:"y2"`
}

func (r *renderResponse) result() (*RenderResult, error) {
	iv, err := genomics.ParseInterval(r.Range)
	if err != nil {
		return nil, fmt.Errorf("parsing range: %v", err)
	}
	result := &RenderResult{
		ImageFile:   r.ImageFile,
		Range:       iv,
		PixelsPerKb: float64(r.PixelsPerKb),
	}
	for _, p := range r.MapPoints {
		result.MapPoints = append(result.MapPoints, MapPoint{
			Label: p.Label,
			X1:    int(p.X1), Y1: int(p.Y1),
			X2: int(p.X2), Y2: int(p.Y2),
		})
	}
	return result, nil
}

type coordinatesResponse struct {
	FMin      flexInt `json:"fmin"`
	FMax      flexInt `json:"fmax"`
	OrgAbbrev string  `json:"org_abbrev"`
	Molecule  string  `json:"molecule"`
}

type regionsResponse struct {
	Regions []region `json:"regions"`
}

type region struct {
	ID           string    `json:"id"`
	Project      string    `json:"project"`
	Label        string    `json:"label"`
	Description  string    `json:"description"`
	OrgsOrder    []string  `json:"orgsOrder"`
	OrgsSelected []string  `json:"orgsSelected"`
	Scaffold     string    `json:"scaffold"`
	Range        string    `json:"range"`
	Flank        flexInt   `json:"flank"`
	PixelsPerKb  flexFloat `json:"pixelsPerKb"`
}

func (r *region) region(project string) (Region, error) {
	scaffold, err := genomics.ParseScaffold(r.Scaffold)
	if err != nil {
		return Region{}, fmt.Errorf("region %q: %v", r.ID, err)
	}
	iv, err := genomics.ParseInterval(r.Range)
	if err != nil {
		return Region{}, fmt.Errorf("region %q: %v", r.ID, err)
	}
	if r.Project != "" {
		project = r.Project
	}
	return Region{
		ID:                r.ID,
		Project:           project,
		Label:             r.Label,
		Description:       r.Description,
		OrganismOrder:     r.OrgsOrder,
		OrganismSelection: r.OrgsSelected,
		Scaffold:          scaffold,
		Range:             iv,
		Flank:             int64(r.Flank),
		PixelsPerKb:       float64(r.PixelsPerKb),
	}, nil
}

// searchMatch decodes either a bare identifier or a {label, value} object.
type searchMatch string

func (m *searchMatch) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = searchMatch(s)
		return nil
	}
	var item struct {
		Label string `json:"label"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal(b, &item); err != nil {
		return fmt.Errorf("search match %s: %v", b, err)
	}
	if item.Value == "" {
		item.Value = item.Label
	}
	*m = searchMatch(item.Value)
	return nil
}

// flexInt accepts a JSON number or a string holding one.  Fractions are
// truncated.
type flexInt int64

func (n *flexInt) UnmarshalJSON(b []byte) error {
	if i, err := strconv.ParseInt(string(bytes.Trim(bytes.TrimSpace(b), `"`)), 10, 64); err == nil {
		*n = flexInt(i)
		return nil
	}
	f, err := parseNumber(b)
	if err != nil {
		return err
	}
	*n = flexInt(f)
	return nil
}

// flexFloat accepts a JSON number or a string holding one.
type flexFloat float64

func (n *flexFloat) UnmarshalJSON(b []byte) error {
	f, err := parseNumber(b)
	if err != nil {
		return err
	}
	*n = flexFloat(f)
	return nil
}

func parseNumber(b []byte) (float64, error) {
	b = bytes.Trim(bytes.TrimSpace(b), `"`)
	if len(b) == 0 || string(b) == "null" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing number %s: %v", b, err)
	}
	return f, nil
}
