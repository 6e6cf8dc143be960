package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/jasm/classfile"
	"github.com/dhamidi/jasm/example"
	"github.com/dhamidi/jasm/format"
)

func newDumpCmd(g *globals) *cobra.Command {
	var dumpFormat string
	var variant string

	cmd := &cobra.Command{
		Use:   "dump [file.class]",
		Short: "Print a class file, or the replayed class when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := commonlog.GetLogger("jasm.dump")

			var cf *classfile.ClassFile
			var err error
			if len(args) == 1 {
				cf, err = classfile.ParseFile(args[0])
				if err != nil {
					return fmt.Errorf("parse class file: %w", err)
				}
				log.Debug("parsed class file", "path", args[0], "class", cf.ClassName())
			} else {
				v, err := example.ParseVariant(variant)
				if err != nil {
					return err
				}
				data, err := example.Dump(v)
				if err != nil {
					return err
				}
				cf, err = classfile.ParseBytes(data)
				if err != nil {
					return fmt.Errorf("parse replayed class: %w", err)
				}
			}

			enc, err := format.NewEncoder(dumpFormat, cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("%w (expected %s)", err, strings.Join(format.Names, ", "))
			}
			if err := enc.Encode(cf); err != nil {
				return fmt.Errorf("encode %s: %w", dumpFormat, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dumpFormat, "format", "f", "text", "output format ("+strings.Join(format.Names, ", ")+")")
	cmd.Flags().StringVar(&variant, "variant", string(example.Shortcut), "variant to replay when no file is given")

	return cmd
}
