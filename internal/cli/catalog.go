package cli

import (
	"fmt"

	"flag-quiz-service/internal/config"
	"flag-quiz-service/internal/logger"
	"github.com/spf13/cobra"
)

// NewCatalogCmd prints the regions of the configured asset catalog and their flag counts.
func NewCatalogCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List regions and flag counts of the asset catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.Env)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			catalog, _ := newCatalog(cfg, log)
			regions, err := catalog.Regions(cmd.Context())
			if err != nil {
				return err
			}
			total := 0
			for _, region := range regions {
				flags, err := catalog.ListFlags(cmd.Context(), region)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%-16s error: %v\n", region, err)
					continue
				}
				total += len(flags)
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %d\n", region, len(flags))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %d\n", "total", total)
			return nil
		},
	}
}
