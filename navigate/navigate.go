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

// Package navigate computes the range to display when jumping to a feature.
package navigate

import (
	"errors"
	"fmt"

	"github.com/sybil-lite/sybil/genomics"
	"github.com/sybil-lite/sybil/view"
)

// Padding is added to both sides of a feature that does not fit in the
// current view.
const Padding = 500

// DefaultView is used as the current view when no range is established.
var DefaultView = genomics.Interval{Start: 1, End: 50000}

// ErrInvalidInterval is returned for a feature whose start exceeds its end.
var ErrInvalidInterval = errors.New("invalid interval")

// Recenter returns the interval to display in order to show feature, keeping
// the width of current when the feature fits inside it.  A zero current
// interval is replaced by DefaultView.
//
// When the feature is at least as wide as the current view the result is the
// feature plus Padding on each side.  Otherwise the feature is centered in a
// view of the current width; the flank is rounded up, so an odd difference
// in widths yields a view one unit wider than current.  A start below 1 is
// clamped to 1.  The end is never clamped.
func Recenter(current, feature genomics.Interval) (genomics.Interval, error) {
	if !feature.Valid() {
		return genomics.Interval{}, fmt.Errorf("%w: feature %s", ErrInvalidInterval, feature)
	}
	if current.IsZero() {
		current = DefaultView
	}

	var next genomics.Interval
	if feature.Width() >= current.Width() {
		next = genomics.Interval{Start: feature.Start - Padding, End: feature.End + Padding}
	} else {
		diff := current.Width() - feature.Width()
		flank := (diff + 1) / 2 // diff > 0, so this is ceil(diff/2)
		next = genomics.Interval{Start: feature.Start - flank, End: feature.End + flank}
	}

	// Coordinates are 1-based, so a start of exactly 0 is clamped too.
	if next.Start < 1 {
		next.Start = 1
	}
	return next, nil
}

// Focus returns state moved onto feature: the scaffold becomes the feature's
// scaffold and the range is recentered on it.
func Focus(state view.State, feature genomics.Feature) (view.State, error) {
	next, err := Recenter(state.Range, feature.Interval)
	if err != nil {
		return state, fmt.Errorf("recentering on %s: %w", feature.ID, err)
	}
	state.Scaffold = feature.Scaffold()
	state.Range = next
	return state, nil
}
