package main

import (
	"os"

	"github.com/goliatone/go-phpfile/pkg/yamlconv"
	"github.com/spf13/cobra"
)

func newImportCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import SOURCE DEST",
		Short: "Convert a YAML or JSON document into a PHP literal file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			value, err := yamlconv.Unmarshal(raw)
			if err != nil {
				return err
			}
			f, err := ro.open(args[1])
			if err != nil {
				return err
			}
			if err := f.Set(value).Save(); err != nil {
				return err
			}
			ro.printf("wrote %s\n", args[1])
			return nil
		},
	}
}
