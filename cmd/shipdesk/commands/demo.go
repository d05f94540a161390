package commands

import (
	"github.com/smallbiznis/shipdesk/internal/demodata"
	"github.com/spf13/cobra"
)

func demoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Manage demo orders",
	}
	cmd.AddCommand(demoGenerateCmd(), demoPurgeCmd())
	return cmd
}

func demoGenerateCmd() *cobra.Command {
	var (
		count int
		seed  uint64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate demo orders against the current catalogs",
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc *demodata.Service
			stop, err := startServices(cmd.Context(), &svc)
			if err != nil {
				return err
			}
			defer stop()

			result, err := svc.Generate(operatorContext(cmd.Context()), count, seed)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 100, "number of orders to create")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 picks one)")
	return cmd
}

func demoPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete every demo order and the clients only they used",
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc *demodata.Service
			stop, err := startServices(cmd.Context(), &svc)
			if err != nil {
				return err
			}
			defer stop()

			result, err := svc.Purge(operatorContext(cmd.Context()))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}
