package commands

import (
	"encoding/json"

	appsettingsdomain "github.com/smallbiznis/shipdesk/internal/appsettings/domain"
	companydomain "github.com/smallbiznis/shipdesk/internal/company/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect company and application settings",
	}
	cmd.AddCommand(settingsDumpCmd())
	return cmd
}

func settingsDumpCmd() *cobra.Command {
	var withLogo bool

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print company and application settings as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				company  companydomain.Service
				settings appsettingsdomain.Service
			)
			stop, err := startServices(cmd.Context(), &company, &settings)
			if err != nil {
				return err
			}
			defer stop()

			ctx := cmd.Context()
			info, err := company.Get(ctx)
			if err != nil {
				return err
			}
			if !withLogo {
				info.Logo = ""
			}
			app, err := settings.Get(ctx)
			if err != nil {
				return err
			}

			doc, err := toYAMLTree(map[string]any{"company": info, "app": app})
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(doc)
		},
	}

	cmd.Flags().BoolVar(&withLogo, "with-logo", false, "include the encoded logo")
	return cmd
}

// toYAMLTree round-trips v through JSON so the dump uses the API field names.
func toYAMLTree(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}
