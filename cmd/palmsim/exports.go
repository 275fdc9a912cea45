package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"palmopsim/internal/models"
	"palmopsim/internal/services/export"
	"palmopsim/internal/services/storage"
)

// openStore opens the export directory, defaulting to the configured one
func (a *app) openStore(dir string) (*storage.Storage, error) {
	if dir == "" {
		dir = a.cfg.ExportDirectory
	}
	return storage.New(dir)
}

func (a *app) newExportCmd() *cobra.Command {
	var (
		dir     string
		encrypt bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run a simulation and save the CSV and Excel exports",
		Long: `Runs a simulation and writes ` + export.CSVFileName + ` and
` + export.XLSXFileName + ` into the export directory. With --encrypt both
files are encrypted with a passphrase and get the .age suffix.`,
		Args: cobra.NoArgs,
	}
	sf := addSimFlags(cmd, true)
	cmd.Flags().StringVar(&dir, "dir", "", "Export directory (default from PALMSIM_EXPORT_DIR or data/exports)")
	cmd.Flags().BoolVar(&encrypt, "encrypt", false, "Encrypt the exports with a passphrase")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := a.resolve(cmd, sf)
		if err != nil {
			return err
		}

		engine, err := a.engine(sf)
		if err != nil {
			return err
		}

		store, err := a.openStore(dir)
		if err != nil {
			return err
		}
		if encrypt {
			pass, err := a.passphrase(cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}
			if err := store.SetPassphrase(pass); err != nil {
				return err
			}
		}

		result := engine.Run(cfg)

		files := []struct {
			name  string
			write func(io.Writer, *models.SimulationResult) error
		}{
			{export.CSVFileName, export.WriteCSV},
			{export.XLSXFileName, export.WriteXLSX},
		}
		for _, f := range files {
			var buf bytes.Buffer
			if err := f.write(&buf, result); err != nil {
				return fmt.Errorf("build %s: %w", f.name, err)
			}
			path, err := store.WriteExport(f.name, buf.Bytes())
			if err != nil {
				return err
			}
			a.logger.Info("export written", zap.String("path", path), zap.String("run_id", result.RunID))
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)
		}
		return nil
	}
	return cmd
}

func (a *app) newExportsCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "exports",
		Short: "List the files in the export directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(dir)
			if err != nil {
				return err
			}
			files, err := store.List()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(files) == 0 {
				fmt.Fprintln(out, "No exports in", store.BaseDir())
				return nil
			}

			t := newTable("Name", "Size", "Modified", "Encrypted")
			for _, f := range files {
				enc := "no"
				if f.Encrypted {
					enc = "yes"
				}
				t.Row(f.Name, humanize.Bytes(uint64(f.Size)), humanize.Time(f.Modified), enc)
			}
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Export directory")
	return cmd
}

func (a *app) newSealCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "seal",
		Short: "Encrypt every plaintext export in the export directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(dir)
			if err != nil {
				return err
			}
			pass, err := a.passphrase(cmd.ErrOrStderr(), true)
			if err != nil {
				return err
			}

			sealed, err := store.Seal(pass)
			if err != nil {
				return err
			}
			for _, p := range sealed {
				fmt.Fprintln(cmd.OutOrStdout(), "Sealed", p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d file(s) sealed\n", len(sealed))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Export directory")
	return cmd
}

func (a *app) newUnsealCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "unseal",
		Short: "Decrypt the sealed exports that open with the passphrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore(dir)
			if err != nil {
				return err
			}
			pass, err := a.passphrase(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}

			opened, skipped, err := store.Unseal(pass)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range opened {
				fmt.Fprintln(out, "Opened", p)
			}
			for _, p := range skipped {
				fmt.Fprintln(out, warnStyle.Render("Skipped "+p+" (different passphrase)"))
			}
			fmt.Fprintf(out, "%d file(s) opened, %d skipped\n", len(opened), len(skipped))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Export directory")
	return cmd
}

func (a *app) newOpenCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "open FILE.age",
		Short: "Decrypt a single sealed export to a new file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			if !strings.HasSuffix(src, storage.EncryptedSuffix) && outPath == "" {
				return errors.New("input has no .age suffix; pass --out")
			}
			dst := outPath
			if dst == "" {
				dst = strings.TrimSuffix(src, storage.EncryptedSuffix)
			}

			pass, err := a.passphrase(cmd.ErrOrStderr(), false)
			if err != nil {
				return err
			}
			if err := storage.DecryptFile(src, dst, pass); err != nil {
				return fmt.Errorf("open %s: %w", filepath.Base(src), err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Wrote", dst)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path (default: input without .age)")
	return cmd
}
