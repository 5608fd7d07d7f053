package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerport/internal/config"
	"github.com/cleared-dev/ledgerport/internal/gitops"
	"github.com/cleared-dev/ledgerport/internal/model"
	"github.com/cleared-dev/ledgerport/internal/records"
)

func newInitCommand() *cobra.Command {
	var entity string
	var yearStart string
	var useGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new conversion project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			if err := runInit(cmd.OutOrStdout(), absDir, entity, yearStart); err != nil {
				return err
			}
			if !useGit {
				return nil
			}
			return commitInit(cmd.Context(), cmd.OutOrStdout(), absDir, entity)
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "entity name (required)")
	_ = cmd.MarkFlagRequired("entity")
	cmd.Flags().StringVar(&yearStart, "year-start", "01-01", "fiscal year start as MM-DD")
	cmd.Flags().BoolVar(&useGit, "git", false, "initialize a git repository and commit the project")

	return cmd
}

func runInit(out io.Writer, dir, entity, yearStart string) error {
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("checking config: %w", err)
	}

	cfg := config.Default(entity)
	cfg.Fiscal.YearStart = yearStart
	if err := cfg.Validate(); err != nil {
		return err
	}

	legacy := filepath.Join(dir, cfg.Source.Dir)
	if err := os.MkdirAll(legacy, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", cfg.Source.Dir, err)
	}

	if err := config.Save(cfgPath, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Single owner with the whole share until the real partners are filled in.
	owner := []model.CapitalEntity{{CapitalAccount: "Capital", Share: oneShare}}
	if err := records.WriteCapitalEntities(legacy, cfg.Format(), owner); err != nil {
		return fmt.Errorf("writing %s: %w", records.CapitalFile, err)
	}

	fmt.Fprintf(out, "Initialized %s at %s\n", entity, dir)
	return nil
}

func commitInit(ctx context.Context, out io.Writer, dir, entity string) error {
	if !gitops.IsRepo(ctx, dir) {
		if err := gitops.Init(ctx, dir); err != nil {
			return err
		}
	}
	hash, err := gitops.Commit(ctx, dir, "init: "+entity, gitops.DefaultAuthor)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Committed %s\n", hash)
	return nil
}
