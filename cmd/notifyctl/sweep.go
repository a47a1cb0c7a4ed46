package main

import (
	"context"
	"encoding/json"
	"fmt"

	"todo-notifier/cmd/bootstrap"
	"todo-notifier/cmd/bootstrap/components"
	resdto "todo-notifier/internal/handler/dto/response"
	"todo-notifier/internal/usecase/commands"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one notification sweep now and print the report",
	Long: `Run one sweep against the configured database and mail driver, outside
the server's schedule. Safe to run while the server is up: reminders already
sent are suppressed.`,
	RunE: runSweep,
}

func runSweep(cmd *cobra.Command, _ []string) error {
	var cmds commands.NotificationCommands

	app := fx.New(
		bootstrap.ConfigModule,
		bootstrap.DBModule,
		bootstrap.LoggerModule,
		components.RepositoryModule,
		components.UseCaseModule,
		fx.Populate(&cmds),
		fx.NopLogger,
	)

	ctx := cmd.Context()
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() { _ = app.Stop(context.Background()) }()

	report, err := cmds.RunSweep(ctx)
	if report != nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(resdto.FromSweepReport(report)); encErr != nil {
			return encErr
		}
	}
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d task(s) failed", len(report.Failed))
	}
	return nil
}
