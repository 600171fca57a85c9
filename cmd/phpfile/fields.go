package main

import (
	"fmt"
	"text/tabwriter"

	phpfile "github.com/goliatone/go-phpfile"
	"github.com/spf13/cobra"
)

func newFieldsCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fields FILE",
		Short: "List the leaf paths of a file and their kinds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := ro.load(args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(ro.out, 0, 4, 2, ' ', 0)
			for _, field := range phpfile.Describe(value) {
				path := field.Path
				if path == "" {
					path = "."
				}
				fmt.Fprintf(tw, "%s\t%s\n", path, field.Kind)
			}
			return tw.Flush()
		},
	}
}
