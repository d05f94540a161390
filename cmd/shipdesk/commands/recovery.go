package commands

import (
	"fmt"

	"github.com/smallbiznis/shipdesk/internal/recovery"
	"github.com/spf13/cobra"
)

func recoveryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recovery",
		Short: "Manage the device recovery code",
	}
	cmd.AddCommand(recoverySetCmd(), recoveryStatusCmd(), recoveryResetCmd())
	return cmd
}

func recoverySetCmd() *cobra.Command {
	var username, passcode string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store a recovery username and passcode on this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			var store *recovery.Store
			stop, err := startServices(cmd.Context(), &store)
			if err != nil {
				return err
			}
			defer stop()

			if err := store.Set(operatorContext(cmd.Context()), username, passcode); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "recovery code saved to %s\n", store.Path())
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "recovery username")
	cmd.Flags().StringVarP(&passcode, "passcode", "p", "", "recovery passcode")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("passcode")
	return cmd
}

func recoveryStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a recovery code is configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			var store *recovery.Store
			stop, err := startServices(cmd.Context(), &store)
			if err != nil {
				return err
			}
			defer stop()

			status, err := store.Status()
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), status)
		},
	}
}

func recoveryResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Remove the stored recovery code",
		RunE: func(cmd *cobra.Command, args []string) error {
			var store *recovery.Store
			stop, err := startServices(cmd.Context(), &store)
			if err != nil {
				return err
			}
			defer stop()

			if err := store.Reset(operatorContext(cmd.Context())); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "recovery code removed")
			return nil
		},
	}
}
