package main

import (
	"encoding/json"
	"fmt"
	"strings"

	phpfile "github.com/goliatone/go-phpfile"
	"github.com/goliatone/go-phpfile/pkg/yamlconv"
	"github.com/spf13/cobra"
)

func newGetCmd(ro *rootOptions) *cobra.Command {
	var format, path string
	cmd := &cobra.Command{
		Use:   "get FILE",
		Short: "Print the value stored in a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := ro.load(args[0])
			if err != nil {
				return err
			}
			if path != "" {
				value, err = lookupPath(value, path)
				if err != nil {
					return err
				}
			}
			out, err := encode(value, format)
			if err != nil {
				return err
			}
			ro.printf("%s\n", strings.TrimRight(out, "\n"))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "php", "output format: php, json or yaml")
	cmd.Flags().StringVarP(&path, "path", "p", "", "dot separated key path to print")
	return cmd
}

func encode(value phpfile.Value, format string) (string, error) {
	switch format {
	case "php", "":
		return phpfile.Render(value)
	case "json":
		raw, err := json.MarshalIndent(phpfile.Native(value), "", "  ")
		if err != nil {
			return "", fmt.Errorf("encode json: %w", err)
		}
		return string(raw), nil
	case "yaml":
		raw, err := yamlconv.Marshal(value)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}

func lookupPath(value phpfile.Value, path string) (phpfile.Value, error) {
	current := value
	for _, segment := range strings.Split(path, ".") {
		var fields *phpfile.Map
		switch c := current.(type) {
		case *phpfile.Map:
			fields = c
		case *phpfile.Object:
			fields = c.Fields
		case phpfile.List:
			fields = phpfile.NewMap(len(c))
			for _, item := range c {
				fields.Append(item)
			}
		default:
			return nil, fmt.Errorf("path %q: %s has no keys", path, phpfile.Kind(current))
		}
		next, ok := fields.Lookup(segment)
		if !ok {
			return nil, fmt.Errorf("path %q: key %q not found", path, segment)
		}
		current = next
	}
	return current, nil
}
