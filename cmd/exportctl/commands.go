package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/segyhp/dialoger-export/internal/service"
	"github.com/segyhp/dialoger-export/pkg/utils"
	"github.com/spf13/cobra"
)

type rangeFlags struct {
	from string
	to   string
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "first day to export (YYYY-MM-DD, default yesterday)")
	cmd.Flags().StringVar(&f.to, "to", "", "day after the last exported day (YYYY-MM-DD, default from + 1 day)")
}

func fileCmd() *cobra.Command {
	var (
		days rangeFlags
		out  string
	)

	cmd := &cobra.Command{
		Use:   "file",
		Short: "Write an export to an xlsx file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := application.Service
			start, end, err := resolveRange(days.from, days.to, time.Now(), svc.Location())
			if err != nil {
				return err
			}

			export, err := svc.BuildExport(cmd.Context(), service.TriggerCLI, start, end)
			if err != nil {
				return err
			}

			path := out
			if path == "" {
				path = export.Filename
			} else if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
				path = filepath.Join(path, export.Filename)
			}

			if err := os.WriteFile(path, export.Content, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d sheets, %d payments)\n", path, export.Sheets, export.Rows)
			return nil
		},
	}

	days.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file or directory (default: attachment name in the working directory)")

	return cmd
}

func emailCmd() *cobra.Command {
	var days rangeFlags

	cmd := &cobra.Command{
		Use:   "email",
		Short: "Email an export to the configured address",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc := application.Service
			start, end, err := resolveRange(days.from, days.to, time.Now(), svc.Location())
			if err != nil {
				return err
			}

			res, err := svc.EmailExport(cmd.Context(), service.TriggerCLI, start, end)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sent %s to %s (%d sheets, %d payments)\n", res.Filename, res.Recipient, res.Sheets, res.Rows)
			return nil
		},
	}

	days.register(cmd)

	return cmd
}

// resolveRange turns the --from/--to flags into a half-open day range in loc.
// Without --from the previous day relative to now is exported.
func resolveRange(from, to string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if from == "" {
		if to != "" {
			return time.Time{}, time.Time{}, fmt.Errorf("--to requires --from")
		}
		start, end := utils.PreviousDay(now, loc)
		return start, end, nil
	}

	start, err := utils.ParseDay(from, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --from %q: %w", from, err)
	}
	if to == "" {
		return start, start.AddDate(0, 0, 1), nil
	}

	end, err := utils.ParseDay(to, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --to %q: %w", to, err)
	}

	return start, end, nil
}
