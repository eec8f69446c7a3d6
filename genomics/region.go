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

// Package genomics contains definitions related to Genomic data.
package genomics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed is returned when the text form of an interval or scaffold
// cannot be parsed.
var ErrMalformed = errors.New("malformed value")

// Interval defines a closed range of 1-based coordinates on a molecule.
//
// The zero Interval means that no range has been established.
type Interval struct {
	Start, End int64
}

// IsZero reports whether the interval is unset.
func (iv Interval) IsZero() bool {
	return iv.Start == 0 && iv.End == 0
}

// Width returns End - Start.  A single base interval has width zero.
func (iv Interval) Width() int64 {
	return iv.End - iv.Start
}

// Valid reports whether Start <= End.
func (iv Interval) Valid() bool {
	return iv.Start <= iv.End
}

// Contains reports whether other lies entirely within iv.
func (iv Interval) Contains(other Interval) bool {
	return iv.Start <= other.Start && other.End <= iv.End
}

// String returns the "<start>-<end>" form used by the rendering backend, or
// the empty string for the zero Interval.
func (iv Interval) String() string {
	if iv.IsZero() {
		return ""
	}
	return strconv.FormatInt(iv.Start, 10) + "-" + strconv.FormatInt(iv.End, 10)
}

// ParseInterval parses the "<start>-<end>" form.  Whitespace is ignored and
// the empty string yields the zero Interval.
func ParseInterval(s string) (Interval, error) {
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return Interval{}, nil
	}

	// A leading '-' belongs to a negative start.
	split := strings.Index(s[1:], "-")
	if split < 0 {
		return Interval{}, fmt.Errorf("%w: interval %q has no separator", ErrMalformed, s)
	}
	split++

	start, err := strconv.ParseInt(s[:split], 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: parsing start of %q: %v", ErrMalformed, s, err)
	}
	end, err := strconv.ParseInt(s[split+1:], 10, 64)
	if err != nil {
		return Interval{}, fmt.Errorf("%w: parsing end of %q: %v", ErrMalformed, s, err)
	}
	return Interval{Start: start, End: end}, nil
}

// Scaffold identifies a molecule (chromosome or contig) of an organism.
type Scaffold struct {
	Organism, Molecule string
}

// IsZero reports whether no scaffold is set.
func (s Scaffold) IsZero() bool {
	return s.Organism == "" && s.Molecule == ""
}

// String returns the "<organism>;<molecule>" form.
func (s Scaffold) String() string {
	if s.IsZero() {
		return ""
	}
	return s.Organism + ";" + s.Molecule
}

// ParseScaffold parses the "<organism>;<molecule>" form.  The empty string
// yields the zero Scaffold.
func ParseScaffold(s string) (Scaffold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Scaffold{}, nil
	}
	parts := strings.SplitN(s, ";", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Scaffold{}, fmt.Errorf("%w: scaffold %q is not <organism>;<molecule>", ErrMalformed, s)
	}
	return Scaffold{Organism: parts[0], Molecule: parts[1]}, nil
}

// Feature is an annotated feature, such as a gene, located on a molecule.
type Feature struct {
	ID                   string
	Molecule             string
	OrganismAbbreviation string
	Interval
}

// Scaffold returns the scaffold the feature is located on.
func (f Feature) Scaffold() Scaffold {
	return Scaffold{Organism: f.OrganismAbbreviation, Molecule: f.Molecule}
}

func (f Feature) String() string {
	return fmt.Sprintf("[feature:%s, scaffold:%s, range:%d-%d]", f.ID, f.Scaffold(), f.Start, f.End)
}
