package commands

import (
	"github.com/smallbiznis/shipdesk/internal/cache"
	"github.com/smallbiznis/shipdesk/internal/recovery"
	"github.com/spf13/cobra"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or flush the settings cache",
	}
	cmd.AddCommand(cacheClearCmd())
	return cmd
}

func cacheClearCmd() *cobra.Command {
	var username, passcode string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Flush cached settings using the recovery code",
		Long: `Flush cached settings using the recovery code.

Only the Redis tier is shared with a running server. Without REDIS_ADDR this
command flushes its own short-lived process and leaves the server untouched;
use POST /api/admin/cache/clear or restart the server instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				store         *recovery.Store
				settingsCache *cache.SettingsCache
			)
			stop, err := startServices(cmd.Context(), &store, &settingsCache)
			if err != nil {
				return err
			}
			defer stop()

			result, err := store.ClearCache(operatorContext(cmd.Context()), username, passcode)
			if err != nil {
				return err
			}
			if notice := clearCacheNotice(settingsCache.Remote()); notice != "" {
				cmd.PrintErrln(notice)
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "recovery username")
	cmd.Flags().StringVarP(&passcode, "passcode", "p", "", "recovery passcode")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("passcode")
	return cmd
}

func clearCacheNotice(remote bool) string {
	if remote {
		return ""
	}
	return "redis is not configured: a running server keeps its own cache, use POST /api/admin/cache/clear"
}
