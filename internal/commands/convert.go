package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerport/internal/store"
)

func newConvertCommand(configPath *string) *cobra.Command {
	var driver, dsn string

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Build every fiscal year and persist it to the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := openProject(*configPath)
			if err != nil {
				return err
			}
			defer p.close()

			if driver == "" {
				driver = p.cfg.Store.Driver
			}
			if dsn == "" {
				dsn = p.cfg.Store.DSN
			}
			if driver == "sqlite" {
				dsn = p.path(dsn)
			}

			sink, err := store.Open(driver, dsn, p.log.Named("store"))
			if err != nil {
				return err
			}
			if sink == nil {
				return fmt.Errorf("no store configured; use check to build without persisting")
			}
			defer sink.Close()

			b, err := p.builder()
			if err != nil {
				return err
			}
			res, err := b.Run(cmd.Context(), p.cfg.Entity, sink)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), res, p.cfg.Currency)
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %d fiscal years in %s\n", len(res.Years), driver)
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "store driver overriding the config (sqlite or postgres)")
	cmd.Flags().StringVar(&dsn, "dsn", "", "store DSN overriding the config")

	return cmd
}
