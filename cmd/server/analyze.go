package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/todmy/doc-checker/internal/report"
	"github.com/todmy/doc-checker/internal/workflow"
	"github.com/todmy/doc-checker/pkg/models"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze [request]",
	Short: "Run every document check once and print the report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		input := strings.Join(args, " ")
		if input == "" {
			input = "Skontroluj bilančnú tabuľku"
		}

		results, err := a.controller.Run(ctx, workflow.Input{Text: input}, func(ev models.StepEvent) {
			if ev.Status != models.StepCompleted {
				fmt.Fprintf(os.Stderr, "%-10s %s\n", ev.Status, ev.Name)
			}
		})
		if err != nil {
			return err
		}

		if analyzeJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		return report.Render(cmd.OutOrStdout(), report.Summarize(results))
	},
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print raw results as JSON")
	rootCmd.AddCommand(analyzeCmd)
}
