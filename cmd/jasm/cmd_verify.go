package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/jasm/example"
	"github.com/dhamidi/jasm/golden"
)

const configuredManifest = "configured"

func newVerifyCmd(g *globals) *cobra.Command {
	var variant string
	var manifest string

	cmd := &cobra.Command{
		Use:   "verify [golden.class]",
		Short: "Compare the replayed bytes with a golden class file or the emit manifest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := commonlog.GetLogger("jasm.verify")
			out := cmd.OutOrStdout()

			if manifest != "" {
				path := manifest
				if path == configuredManifest {
					path = g.cfg.ManifestPath()
				}
				if path == "" {
					return fmt.Errorf("no manifest configured")
				}
				n, err := verifyManifest(path)
				if err != nil {
					return err
				}
				log.Info("manifest verified", "path", path, "entries", n)
				fmt.Fprintf(out, "ok\t%s\t%d entries\n", path, n)
				return nil
			}

			if len(args) != 1 {
				return fmt.Errorf("verify needs a golden class file or --manifest")
			}
			v, err := example.ParseVariant(variant)
			if err != nil {
				return err
			}
			want, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read golden file: %w", err)
			}
			got, err := example.Dump(v)
			if err != nil {
				return err
			}
			if err := golden.Compare(got, want); err != nil {
				log.Error("replay differs from golden file", "variant", v, "path", args[0])
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintf(out, "ok\t%s\t%s\t%d bytes\n", v, args[0], len(got))
			return nil
		},
	}

	cmd.Flags().StringVar(&variant, "variant", string(example.Shortcut), "variant to replay ("+example.VariantNames()+")")
	cmd.Flags().StringVar(&manifest, "manifest", "", "verify every entry of a manifest (default: the configured one)")
	cmd.Flags().Lookup("manifest").NoOptDefVal = configuredManifest

	return cmd
}

// verifyManifest checks each entry against a fresh replay and against the
// file it names.
func verifyManifest(path string) (int, error) {
	m, err := golden.Load(path)
	if err != nil {
		return 0, err
	}
	var errs *multierror.Error
	base := filepath.Dir(path)
	for _, e := range m.Entries {
		v, err := example.ParseVariant(e.Variant)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		data, err := example.Dump(v)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if err := e.Check(data); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("replay %s: %w", v, err))
		}

		file := filepath.FromSlash(e.Path)
		if !filepath.IsAbs(file) {
			file = filepath.Join(base, file)
		}
		onDisk, err := os.ReadFile(file)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("read %s: %w", file, err))
			continue
		}
		if err := e.Check(onDisk); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return len(m.Entries), errs.ErrorOrNil()
}
