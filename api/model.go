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
	"net/url"

	"github.com/sybil-lite/sybil/backend"
	"github.com/sybil-lite/sybil/page"
	"github.com/sybil-lite/sybil/view"
)

// StateModel is the JSON form of a view.State.  Field names follow the
// render form.
type StateModel struct {
	Project           string   `json:"project"`
	OrganismOrder     []string `json:"orgsOrder"`
	OrganismSelection []string `json:"orgsSelected"`
	Scaffold          string   `json:"scaffold"`
	Range             string   `json:"range"`
	Flank             int64    `json:"flank,omitempty"`
	PixelsPerKb       float64  `json:"pixelsPerKb,omitempty"`
}

// ResultModel is the JSON form of a render result.
type ResultModel struct {
	ImageFile   string      `json:"image_file"`
	ImageURL    string      `json:"image_url"`
	Range       string      `json:"range"`
	PixelsPerKb float64     `json:"pixels_per_kb"`
	Areas       []page.Area `json:"areas"`
}

// ViewResponse is returned by the routes that read or change the view.
type ViewResponse struct {
	State  StateModel   `json:"state"`
	Link   string       `json:"link"`
	Result *ResultModel `json:"result,omitempty"`
}

// RegionModel is the JSON form of a saved region of interest.
type RegionModel struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	Description string     `json:"description"`
	Thumbnail   string     `json:"thumbnail"`
	State       StateModel `json:"state"`
}

// RegionsResponse lists the regions of a project.
type RegionsResponse struct {
	Project string        `json:"project"`
	Regions []RegionModel `json:"regions"`
}

// SearchResponse lists the features matching a search term.
type SearchResponse struct {
	Term    string   `json:"term"`
	Matches []string `json:"matches"`
}

func newStateModel(s view.State) StateModel {
	return StateModel{
		Project:           s.Project,
		OrganismOrder:     nonNil(s.OrganismOrder),
		OrganismSelection: nonNil(s.OrganismSelection),
		Scaffold:          s.Scaffold.String(),
		Range:             s.Range.String(),
		Flank:             s.Flank,
		PixelsPerKb:       s.PixelsPerKb,
	}
}

// NewViewResponse returns the JSON form of a view.  result may be nil.
func NewViewResponse(s view.State, link string, result *backend.RenderResult) ViewResponse {
	return ViewResponse{State: newStateModel(s), Link: link, Result: NewResultModel(result)}
}

// NewResultModel returns the JSON form of result, or nil.
func NewResultModel(result *backend.RenderResult) *ResultModel {
	if result == nil {
		return nil
	}
	return &ResultModel{
		ImageFile:   result.ImageFile,
		ImageURL:    imagePath(result.ImageFile),
		Range:       result.Range.String(),
		PixelsPerKb: result.PixelsPerKb,
		Areas:       page.Areas(result.MapPoints),
	}
}

// NewRegionsResponse returns the JSON form of the regions of project.
func NewRegionsResponse(project string, regions []backend.Region) RegionsResponse {
	resp := RegionsResponse{Project: project, Regions: make([]RegionModel, 0, len(regions))}
	for _, r := range regions {
		resp.Regions = append(resp.Regions, RegionModel{
			ID:          r.ID,
			Label:       r.Label,
			Description: r.Description,
			Thumbnail:   page.ThumbnailURL(r),
			State:       newStateModel(r.State()),
		})
	}
	return resp
}

// imagePath is where the server serves the named image.
func imagePath(name string) string {
	return imagePrefix + url.PathEscape(name)
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
