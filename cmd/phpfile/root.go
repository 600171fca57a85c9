package main

import (
	"fmt"
	"io"

	phpfile "github.com/goliatone/go-phpfile"
	"github.com/goliatone/go-phpfile/pkg/schema"
	"github.com/goliatone/go-phpfile/pkg/zaplog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type rootOptions struct {
	verbose   bool
	factories []string
	schema    string

	out    io.Writer
	errOut io.Writer
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	ro := &rootOptions{out: out, errOut: errOut}
	cmd := &cobra.Command{
		Use:           "phpfile",
		Short:         "Inspect and rewrite PHP literal files",
		Long:          `Reads and writes files of the form "<?php return <literal>;" without executing PHP.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&ro.verbose, "verbose", "v", false, "log file operations to stderr")
	flags.StringSliceVar(&ro.factories, "factory", nil, "object type accepted as a generic object (repeatable)")
	flags.StringVar(&ro.schema, "schema", "", "JSON schema checked before writing")

	cmd.AddCommand(
		newGetCmd(ro),
		newEvalCmd(ro),
		newFieldsCmd(ro),
		newFmtCmd(ro),
		newImportCmd(ro),
		newValidateCmd(ro),
	)
	return cmd
}

// fileOptions builds the phpfile options shared by every subcommand.
func (ro *rootOptions) fileOptions() ([]phpfile.Option, error) {
	var opts []phpfile.Option
	if ro.verbose {
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.AddSync(ro.errOut),
			zap.DebugLevel,
		)
		opts = append(opts, phpfile.WithLogger(zaplog.New(zap.New(core))))
	}
	if len(ro.factories) > 0 {
		factories := phpfile.NewFactoryRegistry()
		for _, name := range ro.factories {
			if err := factories.RegisterObject(name); err != nil {
				return nil, fmt.Errorf("--factory: %w", err)
			}
		}
		opts = append(opts, phpfile.WithFactoryRegistry(factories))
	}
	if ro.schema != "" {
		v, err := schema.CompileFile(ro.schema)
		if err != nil {
			return nil, err
		}
		opts = append(opts, phpfile.WithValidator(v))
	}
	return opts, nil
}

func (ro *rootOptions) open(path string) (*phpfile.File, error) {
	opts, err := ro.fileOptions()
	if err != nil {
		return nil, err
	}
	return phpfile.New(path, opts...), nil
}

func (ro *rootOptions) load(path string) (phpfile.Value, error) {
	f, err := ro.open(path)
	if err != nil {
		return nil, err
	}
	if err := f.Load(); err != nil {
		return nil, err
	}
	return f.Get()
}

func (ro *rootOptions) printf(format string, args ...any) {
	fmt.Fprintf(ro.out, format, args...)
}
