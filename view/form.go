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
	"strconv"
	"strings"

	"github.com/sybil-lite/sybil/genomics"
)

// Form field names understood by the rendering backend.
const (
	FieldProject   = "project"
	FieldOrgsOrder = "orgsOrder"
	FieldOrgsSel   = "orgsSelected"
	FieldScaffold  = "scaffold"
	FieldRange     = "range"
	FieldFlank     = "flank"
	FieldPixels    = "pixelsPerKb"
	FieldScroll    = "scroll_direction"
	FieldZoom      = "zoom_direction"
	FieldExport    = "export_as"
)

// TrackedFields are the fields carried by a shareable URL, in order.
var TrackedFields = []string{FieldProject, FieldOrgsOrder, FieldOrgsSel, FieldScaffold, FieldRange}

// Values serializes s as the render form.  Every field is present, unset
// ones as empty strings.
func (s State) Values() url.Values {
	v := url.Values{}
	v.Set(FieldProject, s.Project)
	v.Set(FieldOrgsOrder, strings.Join(s.OrganismOrder, ","))
	v.Set(FieldOrgsSel, strings.Join(s.OrganismSelection, ","))
	v.Set(FieldScaffold, s.Scaffold.String())
	v.Set(FieldRange, s.Range.String())
	v.Set(FieldFlank, formatInt(s.Flank))
	v.Set(FieldPixels, formatFloat(s.PixelsPerKb))
	v.Set(FieldScroll, string(direction(s.Scroll)))
	v.Set(FieldZoom, string(direction(s.Zoom)))
	v.Set(FieldExport, string(s.Export))
	return v
}

// tracked returns the shareable fields of s, in TrackedFields order.
func (s State) tracked() []string {
	return []string{
		s.Project,
		strings.Join(s.OrganismOrder, ","),
		strings.Join(s.OrganismSelection, ","),
		s.Scaffold.String(),
		s.Range.String(),
	}
}

// FromValues parses a form or deep-link query.  Missing fields keep their
// zero values.
func FromValues(v url.Values) (State, error) {
	s := State{
		Project: strings.TrimSpace(v.Get(FieldProject)),
		Scroll:  None,
		Zoom:    None,
		Export:  ExportFormat(v.Get(FieldExport)),
	}
	s = s.WithOrganisms(splitList(v.Get(FieldOrgsOrder)), splitList(v.Get(FieldOrgsSel)))

	var err error
	if s.Scaffold, err = genomics.ParseScaffold(v.Get(FieldScaffold)); err != nil {
		return State{}, fmt.Errorf("parsing %s: %v", FieldScaffold, err)
	}
	if s.Range, err = genomics.ParseInterval(v.Get(FieldRange)); err != nil {
		return State{}, fmt.Errorf("parsing %s: %v", FieldRange, err)
	}
	if f := strings.TrimSpace(v.Get(FieldFlank)); f != "" {
		if s.Flank, err = strconv.ParseInt(f, 10, 64); err != nil {
			return State{}, fmt.Errorf("parsing %s: %v", FieldFlank, err)
		}
	}
	if p := strings.TrimSpace(v.Get(FieldPixels)); p != "" {
		if s.PixelsPerKb, err = strconv.ParseFloat(p, 64); err != nil {
			return State{}, fmt.Errorf("parsing %s: %v", FieldPixels, err)
		}
	}
	if s.Scroll, err = ParseDirection(v.Get(FieldScroll)); err != nil {
		return State{}, fmt.Errorf("parsing %s: %v", FieldScroll, err)
	}
	if s.Zoom, err = ParseDirection(v.Get(FieldZoom)); err != nil {
		return State{}, fmt.Errorf("parsing %s: %v", FieldZoom, err)
	}
	if s.Export != Interactive && s.Export != SVG {
		return State{}, fmt.Errorf("unsupported export format %q", s.Export)
	}

	if err := s.Validate(); err != nil {
		return State{}, err
	}
	return s, nil
}

// ParseQuery parses a raw query string as FromValues does.  Unlike
// url.ParseQuery it treats ';' as an ordinary character, since shareable
// URLs carry the scaffold unescaped.
func ParseQuery(rawQuery string) (State, error) {
	v, err := splitQuery(rawQuery)
	if err != nil {
		return State{}, err
	}
	return FromValues(v)
}

// HasTracked reports whether rawQuery sets any of the TrackedFields, which
// marks a deep-linked request.
func HasTracked(rawQuery string) bool {
	v, err := splitQuery(rawQuery)
	if err != nil {
		return false
	}
	for _, field := range TrackedFields {
		if v.Get(field) != "" {
			return true
		}
	}
	return false
}

func splitQuery(rawQuery string) (url.Values, error) {
	v := url.Values{}
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value := pair, ""
		if i := strings.Index(pair, "="); i >= 0 {
			key, value = pair[:i], pair[i+1:]
		}
		rawKey := key
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("unescaping query key %q: %v", rawKey, err)
		}
		value, err = url.QueryUnescape(value)
		if err != nil {
			return nil, fmt.Errorf("unescaping %s: %v", key, err)
		}
		v.Add(key, value)
	}
	return v, nil
}

func splitList(s string) []string {
	var list []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.Join(strings.Fields(item), ""); item != "" {
			list = append(list, item)
		}
	}
	return list
}

func direction(d Direction) Direction {
	if d == "" {
		return None
	}
	return d
}

func formatInt(n int64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
