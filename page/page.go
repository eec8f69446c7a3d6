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

// Package page renders the HTML fragments of the viewer page: the result
// panel holding the synteny image and its hotspots, and the listing of saved
// regions of interest.
package page

import (
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/sybil-lite/sybil/backend"
)

// Area is a clickable hotspot of the image map.
type Area struct {
	ID     string `json:"id"`
	Shape  string `json:"shape"`
	Coords string `json:"coords"`
	Title  string `json:"title"`
}

// Areas returns the hotspots for points, numbered from area1.
func Areas(points []backend.MapPoint) []Area {
	areas := make([]Area, 0, len(points))
	for i, p := range points {
		areas = append(areas, Area{
			ID:     fmt.Sprintf("area%d", i+1),
			Shape:  "rect",
			Coords: fmt.Sprintf("%d,%d,%d,%d", p.X1, p.Y1, p.X2, p.Y2),
			Title:  p.Label,
		})
	}
	return areas
}

// Layout selects how regions of interest are listed.
type Layout string

const (
	Graphical Layout = "graphical"
	Tabular   Layout = "tabular"
)

// ParseLayout accepts "graphical" and "tabular".
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(s); l {
	case Graphical, Tabular:
		return l, nil
	}
	return "", fmt.Errorf("unknown region layout %q", s)
}

// NoRegions is shown in place of an empty listing.
const NoRegions = "No regions of interest have been defined."

var funcs = template.FuncMap{
	"inc":       func(i int) int { return i + 1 },
	"thumbnail": ThumbnailURL,
}

var templates = template.Must(template.New("result").Funcs(funcs).Parse(`<map name="featureMap" id="featureMap">
{{- range .Areas}}<area id="{{.ID}}" shape="{{.Shape}}" coords="{{.Coords}}" title="{{.Title}}">{{end -}}
</map><img src="{{.ImageURL}}" alt="syn_images" usemap="#featureMap">`))

func init() {
	template.Must(templates.New("graphical").Parse(`<div id="examples_c">
{{- range .Regions}}
<div class="alignment_example" id="{{.ID}}" data-region="{{.ID}}" style="background-image: url('{{thumbnail .}}')">
<h2>{{.Label}}</h2>
<div class="comment_c"><p>{{.Description}}</p></div>
</div>
{{- else}}
<p>{{$.Empty}}</p>
{{- end}}
</div>`))

	template.Must(templates.New("tabular").Parse(`<div id="examples_c">
{{- if .Regions}}
<table id="examples_tbl">
{{- range $i, $r := .Regions}}
<tr id="roi_row_{{inc $i}}" data-region="{{$r.ID}}"><td>{{$r.Label}}</td><td>{{$r.Scaffold}}</td><td>{{$r.Range}}</td><td id="roi_row_{{inc $i}}_desc"><a title="{{$r.Description}}">[description]</a></td></tr>
{{- end}}
</table>
{{- else}}
<p>{{.Empty}}</p>
{{- end}}
</div>`))
}

// ResultPanel writes the image map and image of result.  imageURL is the
// address the browser should load the image from.
func ResultPanel(w io.Writer, imageURL string, result *backend.RenderResult) error {
	return templates.ExecuteTemplate(w, "result", struct {
		Areas    []Area
		ImageURL string
	}{Areas(result.MapPoints), imageURL})
}

// ThumbnailURL returns the address of the 150 pixel high preview of r.
func ThumbnailURL(r backend.Region) string {
	return "./data/" + url.PathEscape(r.Project) + "/regions_of_interest/" + url.PathEscape(r.ID) + "_150h.png"
}

// Regions writes the listing of regions in the given layout.
func Regions(w io.Writer, layout Layout, regions []backend.Region) error {
	if layout != Graphical && layout != Tabular {
		return fmt.Errorf("unknown region layout %q", layout)
	}
	return templates.ExecuteTemplate(w, string(layout), struct {
		Regions []backend.Region
		Empty   string
	}{regions, NoRegions})
}
