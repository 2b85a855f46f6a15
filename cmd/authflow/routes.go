package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrEthical07/authflow/site"
)

func newRoutesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "Print the site route table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ROUTE\tPATH\tTITLE")
			for _, e := range site.Table {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Route, e.Path, e.Title)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", site.RouteNotFound, "*", "Page not found")
			return tw.Flush()
		},
	}
}
