package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/jasm/config"
	"github.com/dhamidi/jasm/example"
	"github.com/dhamidi/jasm/golden"
)

func newEmitCmd(g *globals) *cobra.Command {
	var variants []string
	var outDir string
	var toStdout bool

	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Write the example class file for one or more variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := commonlog.GetLogger("jasm.emit")

			vs, err := g.cfg.Variants()
			if len(variants) > 0 {
				vs, err = config.ResolveVariants(variants)
			}
			if err != nil {
				return fmt.Errorf("resolve variants: %w", err)
			}

			if toStdout {
				if len(vs) != 1 {
					return fmt.Errorf("--stdout needs exactly one variant, got %d", len(vs))
				}
				data, err := example.Dump(vs[0])
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			dir := g.cfg.OutputDir()
			manifestPath := g.cfg.ManifestPath()
			if outDir != "" {
				dir = outDir
				if manifestPath != "" && !filepath.IsAbs(g.cfg.Output.Manifest) {
					manifestPath = filepath.Join(outDir, g.cfg.Output.Manifest)
				}
			}

			entries, err := emitVariants(dir, vs)
			if err != nil {
				return err
			}
			for _, e := range entries {
				log.Notice("wrote class file", "variant", e.Variant, "path", e.Path, "size", e.Size)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d\n", e.Variant, e.Path, e.Size)
			}

			if manifestPath == "" {
				return nil
			}
			if err := updateManifest(manifestPath, entries); err != nil {
				return err
			}
			log.Info("updated manifest", "path", manifestPath, "entries", len(entries))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&variants, "variant", nil, "variant to emit ("+example.VariantNames()+"); repeatable")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default from "+config.FileName+")")
	cmd.Flags().BoolVar(&toStdout, "stdout", false, "write the raw class file to stdout")

	return cmd
}

// classFilePath places a single variant at <dir>/example/Example.class and
// several at <dir>/<variant>/example/Example.class.
func classFilePath(dir string, v example.Variant, several bool) string {
	if several {
		return filepath.Join(dir, string(v), filepath.FromSlash(example.ClassPath))
	}
	return filepath.Join(dir, filepath.FromSlash(example.ClassPath))
}

func emitVariants(dir string, vs []example.Variant) ([]golden.Entry, error) {
	var entries []golden.Entry
	for _, v := range vs {
		data, err := example.Dump(v)
		if err != nil {
			return nil, fmt.Errorf("dump %s: %w", v, err)
		}
		path := classFilePath(dir, v, len(vs) > 1)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write class file: %w", err)
		}
		entries = append(entries, golden.NewEntry(string(v), example.ClassName, path, data))
	}
	return entries, nil
}

// updateManifest records entries with paths relative to the manifest.
func updateManifest(path string, entries []golden.Entry) error {
	m, err := golden.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		m, err = &golden.Manifest{}, nil
	}
	if err != nil {
		return err
	}
	base := filepath.Dir(path)
	for _, e := range entries {
		if rel, err := filepath.Rel(base, e.Path); err == nil {
			e.Path = filepath.ToSlash(rel)
		}
		m.Put(e)
	}
	return m.Save(path)
}
