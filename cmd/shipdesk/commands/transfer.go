package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/smallbiznis/shipdesk/internal/spreadsheet"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func exportCmd() *cobra.Command {
	var (
		format   string
		out      string
		status   string
		from     string
		to       string
		demoOnly bool
	)

	cmd := &cobra.Command{
		Use:   "export <clients|orders>",
		Short: "Export clients or orders as csv, xlsx or pdf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsedFormat, err := spreadsheet.ParseFormat(format)
			if err != nil {
				return err
			}
			req := spreadsheet.ExportRequest{
				Entity:   args[0],
				Format:   parsedFormat,
				Status:   status,
				DemoOnly: demoOnly,
			}
			if req.From, err = parseDate(from, false); err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			if req.To, err = parseDate(to, true); err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			var sheets *spreadsheet.Service
			stop, err := startServices(cmd.Context(), &sheets)
			if err != nil {
				return err
			}
			defer stop()

			file, err := sheets.Export(operatorContext(cmd.Context()), req)
			if err != nil {
				return err
			}
			if out == "" {
				out = file.Name
			}
			if err := os.WriteFile(out, file.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(file.Data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv, xlsx or pdf")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (defaults to a generated name)")
	cmd.Flags().StringVar(&status, "status", "", "orders only: filter by status")
	cmd.Flags().StringVar(&from, "from", "", "orders only: created on or after YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "orders only: created on or before YYYY-MM-DD")
	cmd.Flags().BoolVar(&demoOnly, "demo", false, "orders only: export demo orders")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <clients|orders> <file>",
		Short: "Import clients or orders from csv, xls or xlsx",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			var sheets *spreadsheet.Service
			stop, err := startServices(cmd.Context(), &sheets)
			if err != nil {
				return err
			}
			defer stop()

			result, err := sheets.Import(operatorContext(cmd.Context()), spreadsheet.ImportRequest{
				Entity:   args[0],
				Filename: filepath.Base(args[1]),
				Data:     data,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
}

func parseDate(value string, endOfDay bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		parsed = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	return &parsed, nil
}
