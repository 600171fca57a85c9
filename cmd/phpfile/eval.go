package main

import (
	"fmt"
	"time"

	phpfile "github.com/goliatone/go-phpfile"
	"github.com/spf13/cobra"
)

func newEvalCmd(ro *rootOptions) *cobra.Command {
	var (
		engine  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "eval FILE EXPR",
		Short: "Evaluate an expression against the value stored in a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := ro.fileOptions()
			if err != nil {
				return err
			}
			evaluator, err := evaluatorFor(engine, timeout)
			if err != nil {
				return err
			}
			if evaluator != nil {
				opts = append(opts, phpfile.WithEvaluator(evaluator))
			}
			f := phpfile.New(args[0], opts...)
			if err := f.Load(); err != nil {
				return err
			}
			res, err := f.Evaluate(args[1])
			if err != nil {
				return err
			}
			out, err := encode(res.Value, "json")
			if err != nil {
				return err
			}
			ro.printf("%s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&engine, "engine", "e", "expr", "expression engine: expr, cel or js")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Second, "abort js expressions running longer than this")
	return cmd
}

func evaluatorFor(engine string, timeout time.Duration) (phpfile.Evaluator, error) {
	switch engine {
	case "expr", "":
		return nil, nil
	case "cel":
		return phpfile.NewCELEvaluator(), nil
	case "js":
		e := phpfile.NewJSEvaluator(phpfile.EngineTimeout(timeout))
		if e == nil {
			return nil, fmt.Errorf("js engine not available: build with -tags js_eval")
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown engine %q", engine)
	}
}
