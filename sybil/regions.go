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

	"github.com/spf13/cobra"

	"github.com/sybil-lite/sybil/api"
	"github.com/sybil-lite/sybil/page"
	"github.com/sybil-lite/sybil/view"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List, save and load regions of interest",
}

var (
	listProject string
	listLayout  string
)

var regionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the regions of interest of a project",
	Long: `List prints the saved regions of a project as JSON, or as the HTML
listing of the viewer page when --layout is graphical or tabular.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var layout page.Layout
		if listLayout != "" {
			var err error
			if layout, err = page.ParseLayout(listLayout); err != nil {
				return err
			}
		}

		ctx := context.Background()
		c, _, cfg, err := newController(ctx)
		if err != nil {
			return err
		}
		project := listProject
		if project == "" {
			project = cfg.Project
		}
		c.ApplyState(view.State{Project: project})

		regions, err := c.Regions(ctx)
		if err != nil {
			return err
		}
		if layout != "" {
			return page.Regions(cmd.OutOrStdout(), layout, regions)
		}
		return printJSON(cmd.OutOrStdout(), api.NewRegionsResponse(project, regions))
	},
}

var (
	saveFlags       stateFlags
	saveDescription string
)

var regionsSaveCmd = &cobra.Command{
	Use:   "save LABEL",
	Short: "Save a view as a region of interest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, _, err := startView(ctx, cmd, &saveFlags)
		if err != nil {
			return err
		}
		if err := c.SaveRegion(ctx, args[0], saveDescription); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %q\n", args[0])
		return nil
	},
}

var (
	loadProject string
	loadOutput  string
)

var regionsLoadCmd = &cobra.Command{
	Use:   "load ID",
	Short: "Render a saved region of interest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		c, client, cfg, err := newController(ctx)
		if err != nil {
			return err
		}
		project := loadProject
		if project == "" {
			project = cfg.Project
		}
		c.ApplyState(view.State{Project: project})

		regions, err := c.Regions(ctx)
		if err != nil {
			return err
		}
		for _, r := range regions {
			if r.ID != args[0] {
				continue
			}
			result, err := c.LoadRegion(ctx, r)
			if err != nil {
				return err
			}
			return finish(ctx, cmd.OutOrStdout(), c, client, result, loadOutput)
		}
		return fmt.Errorf("project %s has no region %q", project, args[0])
	},
}

func init() {
	regionsListCmd.Flags().StringVar(&listProject, "project", "", "project (default from config)")
	regionsListCmd.Flags().StringVar(&listLayout, "layout", "", "print HTML in this layout (graphical or tabular)")

	saveFlags.register(regionsSaveCmd)
	regionsSaveCmd.Flags().StringVar(&saveDescription, "description", "", "description of the region")

	regionsLoadCmd.Flags().StringVar(&loadProject, "project", "", "project (default from config)")
	regionsLoadCmd.Flags().StringVarP(&loadOutput, "output", "o", "", "write the image to this file")

	regionsCmd.AddCommand(regionsListCmd, regionsSaveCmd, regionsLoadCmd)
	rootCmd.AddCommand(regionsCmd)
}
