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

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/sybil-lite/sybil/api"
	"github.com/sybil-lite/sybil/backend"
	"github.com/sybil-lite/sybil/controller"
	"github.com/sybil-lite/sybil/genomics"
	"github.com/sybil-lite/sybil/internal/config"
	"github.com/sybil-lite/sybil/navigate"
	"github.com/sybil-lite/sybil/view"
)

// stateFlags describe a view on the command line.  A --link is read first
// and the other flags override its fields.
type stateFlags struct {
	link      string
	project   string
	orgs      string
	selected  string
	scaffold  string
	rangeText string
	pixels    string
}

func (f *stateFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.link, "link", "", "shareable URL to start from")
	cmd.Flags().StringVar(&f.project, "project", "", "project (default from config)")
	cmd.Flags().StringVar(&f.orgs, "orgs", "", "comma-separated organism order")
	cmd.Flags().StringVar(&f.selected, "selected", "", "comma-separated enabled organisms")
	cmd.Flags().StringVar(&f.scaffold, "scaffold", "", "scaffold as <organism>;<molecule>")
	cmd.Flags().StringVar(&f.rangeText, "range", "", "range as <start>-<end>")
	cmd.Flags().StringVar(&f.pixels, "pixels", "", "pixels per kb")
}

func (f *stateFlags) state(cmd *cobra.Command, cfg *config.Config) (view.State, error) {
	v := url.Values{}
	if f.link != "" {
		s, err := cfg.Linker().Parse(f.link)
		if err != nil {
			return view.State{}, fmt.Errorf("parsing --link: %v", err)
		}
		v = s.Values()
	}
	set := func(flag, field, value string) {
		if cmd.Flags().Changed(flag) {
			v.Set(field, value)
		}
	}
	set("project", view.FieldProject, f.project)
	set("orgs", view.FieldOrgsOrder, f.orgs)
	set("selected", view.FieldOrgsSel, f.selected)
	set("scaffold", view.FieldScaffold, f.scaffold)
	set("range", view.FieldRange, f.rangeText)
	set("pixels", view.FieldPixels, f.pixels)
	if v.Get(view.FieldProject) == "" {
		v.Set(view.FieldProject, cfg.Project)
	}
	return view.FromValues(v)
}

// startView returns a controller holding the view described by flags.
func startView(ctx context.Context, cmd *cobra.Command, flags *stateFlags) (*controller.Controller, *backend.Client, error) {
	c, client, cfg, err := newController(ctx)
	if err != nil {
		return nil, nil, err
	}
	s, err := flags.state(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := c.ApplyState(s); err != nil {
		return nil, nil, err
	}
	return c, client, nil
}

var (
	renderFlags  stateFlags
	renderScroll string
	renderZoom   string
	renderSVG    bool
	renderOutput string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a view",
	Long: `Render asks the renderer to draw a view and prints the view as drawn,
its shareable link and the hotspots of the image.  With -o the image is
downloaded as well.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, client, err := startView(ctx, cmd, &renderFlags)
		if err != nil {
			return err
		}

		var result *backend.RenderResult
		switch {
		case renderSVG:
			result, err = c.ExportSVG(ctx)
		case renderScroll != "":
			d, perr := view.ParseDirection(renderScroll)
			if perr != nil {
				return perr
			}
			result, err = c.Scroll(ctx, d)
		case renderZoom != "":
			d, perr := view.ParseDirection(renderZoom)
			if perr != nil {
				return perr
			}
			result, err = c.Zoom(ctx, d)
		default:
			result, err = c.Submit(ctx)
		}
		if err != nil {
			return err
		}
		return finish(ctx, cmd.OutOrStdout(), c, client, result, renderOutput)
	},
}

var (
	navigateFlags  stateFlags
	navigateOutput string
)

var navigateCmd = &cobra.Command{
	Use:   "navigate GENE",
	Short: "Center the view on a gene and render it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, client, err := startView(ctx, cmd, &navigateFlags)
		if err != nil {
			return err
		}
		result, err := c.NavigateToGene(ctx, args[0])
		if err != nil {
			return err
		}
		return finish(ctx, cmd.OutOrStdout(), c, client, result, navigateOutput)
	},
}

var recenterCmd = &cobra.Command{
	Use:   "recenter CURRENT FEATURE",
	Short: "Print the range that shows FEATURE at the zoom level of CURRENT",
	Long: `Recenter computes, without contacting any service, the range the viewer
moves to when navigating to a feature.  Both ranges are <start>-<end>; an
empty CURRENT means the default view.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		current, err := genomics.ParseInterval(args[0])
		if err != nil {
			return fmt.Errorf("parsing CURRENT: %v", err)
		}
		feature, err := genomics.ParseInterval(args[1])
		if err != nil {
			return fmt.Errorf("parsing FEATURE: %v", err)
		}
		next, err := navigate.Recenter(current, feature)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), next)
		return nil
	},
}

var (
	linkFlags stateFlags
	linkParse string
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Print the shareable URL of a view, or parse one with --parse",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if linkParse != "" {
			s, err := cfg.Linker().Parse(linkParse)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), api.NewViewResponse(s, linkParse, nil))
		}
		s, err := linkFlags.state(cmd, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.Linker().URL(s))
		return nil
	},
}

var searchProject string

var searchCmd = &cobra.Command{
	Use:   "search TERM",
	Short: "List the features of a project matching TERM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, _, cfg, err := newController(ctx)
		if err != nil {
			return err
		}
		project := searchProject
		if project == "" {
			project = cfg.Project
		}
		c.ApplyState(view.State{Project: project})
		matches, err := c.Search(ctx, args[0])
		if err != nil {
			return err
		}
		for _, m := range matches {
			fmt.Fprintln(cmd.OutOrStdout(), m)
		}
		return nil
	},
}

// finish downloads the image of result to output, if set, and prints the
// view to w.  The image URL printed is the backend's.
func finish(ctx context.Context, w io.Writer, c *controller.Controller, client *backend.Client, result *backend.RenderResult, output string) error {
	if output != "" {
		if err := download(ctx, client, result.ImageFile, output); err != nil {
			return err
		}
	}
	resp := api.NewViewResponse(c.CaptureState(), c.ShareableURL(), result)
	resp.Result.ImageURL = client.ImageURL(result.ImageFile)
	return printJSON(w, resp)
}

func download(ctx context.Context, client *backend.Client, image, output string) error {
	r, _, err := client.Image(ctx, image)
	if err != nil {
		return fmt.Errorf("fetching image: %v", err)
	}
	defer r.Close()

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("opening output file: %v", err)
	}
	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		return fmt.Errorf("copying image to disk: %v", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %v", err)
	}
	log.Printf("Wrote %s to %s", humanSize(n), output)
	return nil
}

func humanSize(n int64) string {
	kb := n / 1024
	mb := kb / 1024
	if mb > 1 {
		return fmt.Sprintf("%d MB", mb)
	}
	if kb > 1 {
		return fmt.Sprintf("%d KB", kb)
	}
	return fmt.Sprintf("%d bytes", n)
}

func init() {
	renderFlags.register(renderCmd)
	renderCmd.Flags().StringVar(&renderScroll, "scroll", "", "scroll direction (left or right)")
	renderCmd.Flags().StringVar(&renderZoom, "zoom", "", "zoom direction (in or out)")
	renderCmd.Flags().BoolVar(&renderSVG, "svg", false, "export the view as SVG")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "write the image to this file")

	navigateFlags.register(navigateCmd)
	navigateCmd.Flags().StringVarP(&navigateOutput, "output", "o", "", "write the image to this file")

	linkFlags.register(linkCmd)
	linkCmd.Flags().StringVar(&linkParse, "parse", "", "shareable URL to decode")

	searchCmd.Flags().StringVar(&searchProject, "project", "", "project (default from config)")

	rootCmd.AddCommand(renderCmd, navigateCmd, recenterCmd, linkCmd, searchCmd)
}
