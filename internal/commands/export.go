package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerport/internal/gitops"
	"github.com/cleared-dev/ledgerport/internal/model"
	"github.com/cleared-dev/ledgerport/internal/records"
)

func newExportCommand(configPath *string) *cobra.Command {
	var commit bool

	cmd := &cobra.Command{
		Use:   "export <directory>",
		Short: "Build every fiscal year and write it back as record files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*configPath)
			if err != nil {
				return err
			}
			defer p.close()

			outDir, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			b, err := p.builder()
			if err != nil {
				return err
			}
			res, err := b.Build()
			if err != nil {
				return err
			}

			f := p.cfg.Format()
			for _, fy := range res.Years {
				yr, _ := res.Records(fy.Year)
				if err := records.WriteYear(outDir, f, yr); err != nil {
					return fmt.Errorf("exporting %d: %w", fy.Year, err)
				}
			}
			if err := records.WriteCapitalEntities(outDir, f, res.Entities); err != nil {
				return fmt.Errorf("exporting %s: %w", records.CapitalFile, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d fiscal years to %s\n", len(res.Years), outDir)
			if !commit {
				return nil
			}
			return commitExport(cmd.Context(), cmd.OutOrStdout(), outDir, p.cfg.Entity, res.Years)
		},
	}

	cmd.Flags().BoolVar(&commit, "commit", false, "commit the exported records to git, initializing a repository if needed")

	return cmd
}

func commitExport(ctx context.Context, out io.Writer, dir, entity string, years []*model.FiscalYear) error {
	if !gitops.IsRepo(ctx, dir) {
		if err := gitops.Init(ctx, dir); err != nil {
			return err
		}
	}
	msg := fmt.Sprintf("export: %s %d-%d", entity, years[0].Year, years[len(years)-1].Year)
	hash, err := gitops.Commit(ctx, dir, msg, gitops.DefaultAuthor, ".")
	if errors.Is(err, gitops.ErrNothingToCommit) {
		fmt.Fprintln(out, "Exported records unchanged")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Committed %s\n", hash)
	return nil
}
