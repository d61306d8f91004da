// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/curioloop/curvefit/models"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the built-in models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tPARAMS\tFORMULA")
			for _, name := range models.Names() {
				e, _ := models.Lookup(name)
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, strings.Join(e.Params, ","), e.Formula)
			}
			return tw.Flush()
		},
	}
}
