package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(ro *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate PATTERN...",
		Short: "Check files parse and, with --schema, match a JSON schema",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandPatterns(args)
			if err != nil {
				return err
			}
			failed := 0
			for _, path := range paths {
				f, err := ro.open(path)
				if err != nil {
					return err
				}
				err = f.Load()
				if err == nil {
					err = f.Validate()
				}
				if err != nil {
					failed++
					ro.printf("FAIL %s: %v\n", path, err)
					continue
				}
				ro.printf("ok   %s\n", path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) failed validation", failed, len(paths))
			}
			return nil
		},
	}
}
