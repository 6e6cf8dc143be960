package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/jasm/asm"
	"github.com/dhamidi/jasm/example"
)

func newTraceCmd(g *globals) *cobra.Command {
	var variant string
	var write bool

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the recorded visitor calls",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := commonlog.GetLogger("jasm.trace")

			v, err := example.ParseVariant(variant)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			tracer := asm.NewTracer(out, nil)
			var cw *asm.ClassWriter
			if write {
				cw = asm.NewClassWriter()
				tracer.Next = cw
			}

			if err := example.Replay(tracer, v); err != nil {
				return err
			}
			if err := tracer.Err(); err != nil {
				return fmt.Errorf("write trace: %w", err)
			}
			if cw == nil {
				return nil
			}

			data, err := cw.ToByteArray()
			if err != nil {
				return fmt.Errorf("serialize %s: %w", v, err)
			}
			log.Debug("serialized traced class", "variant", v, "size", len(data))
			fmt.Fprintf(out, "\n// %d bytes\n", len(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&variant, "variant", string(example.Shortcut), "variant to trace ("+example.VariantNames()+")")
	cmd.Flags().BoolVar(&write, "write", false, "also serialize through a class writer and report the size")

	return cmd
}
