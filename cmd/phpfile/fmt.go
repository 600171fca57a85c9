package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	phpfile "github.com/goliatone/go-phpfile"
	"github.com/spf13/cobra"
)

func newFmtCmd(ro *rootOptions) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "fmt PATTERN...",
		Short: "Rewrite files in canonical form",
		Long: `Loads every file matching the patterns (doublestar globs such as config/**/*.php)
and saves it back in canonical form. With --check nothing is written and the
command fails when a file is not canonical.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandPatterns(args)
			if err != nil {
				return err
			}
			var unformatted []string
			for _, path := range paths {
				changed, err := ro.format(path, check)
				if err != nil {
					return err
				}
				if changed {
					unformatted = append(unformatted, path)
					ro.printf("%s\n", path)
				}
			}
			if check && len(unformatted) > 0 {
				return fmt.Errorf("%d file(s) not in canonical form", len(unformatted))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "report files that would change without writing")
	return cmd
}

// format reports whether path differs from its canonical rendering and,
// unless dryRun is set, rewrites it.
func (ro *rootOptions) format(path string, dryRun bool) (bool, error) {
	current, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	f, err := ro.open(path)
	if err != nil {
		return false, err
	}
	if err := f.Load(); err != nil {
		return false, err
	}
	value, err := f.Get()
	if err != nil {
		return false, err
	}
	canonical, err := phpfile.RenderFile(value)
	if err != nil {
		return false, err
	}
	if bytes.Equal(current, canonical) {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	return true, f.Set(value).Save()
}

var errNoMatches = errors.New("no files match")

func expandPatterns(patterns []string) ([]string, error) {
	seen := map[string]bool{}
	var paths []string
	for _, pattern := range patterns {
		hits, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", pattern, err)
		}
		if len(hits) == 0 {
			return nil, fmt.Errorf("%w %q", errNoMatches, pattern)
		}
		for _, hit := range hits {
			info, err := os.Stat(hit)
			if err != nil || !info.Mode().IsRegular() || seen[hit] {
				continue
			}
			seen[hit] = true
			paths = append(paths, hit)
		}
	}
	sort.Strings(paths)
	return paths, nil
}
