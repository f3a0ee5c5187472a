package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/harrisonrobin/schedule/pkg/auth"
	"github.com/harrisonrobin/schedule/pkg/config"
	"github.com/harrisonrobin/schedule/pkg/log"
)

var calendarName string

var rootCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Track recurring daily tasks and their history",
	Long: `schedule keeps a catalog of recurring tasks grouped by calendar rules.
Every run first catches up on the days missed since the last run, then
shows or updates the live day.`,
	SilenceUsage: true,
	RunE:         withApp(runToday),
}

var setCalendarCmd = &cobra.Command{
	Use:   "set-calendar NAME",
	Short: "Set the default Google Calendar name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cfg.Calendar = args[0]
		if err := config.Save(cfg); err != nil {
			return fmt.Errorf("error saving config: %w", err)
		}
		fmt.Printf("Default calendar set to: %s\n", args[0])
		return nil
	},
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with Google Calendar",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := auth.Reset(); err != nil {
			return err
		}
		if _, err := auth.GetCalendarService(cmd.Context()); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
		fmt.Println("Authentication successful!")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&calendarName, "calendar", "", "Google Calendar name to push to (overrides config)")

	rootCmd.AddCommand(
		todayCmd,
		addGroupCmd,
		setRecurrenceCmd,
		deleteGroupCmd,
		addTaskCmd,
		assignCmd,
		removeCmd,
		deleteTaskCmd,
		addOneTimeCmd,
		markCmd,
		historyCmd,
		importCmd,
		menuCmd,
		pushCmd,
		setCalendarCmd,
		authCmd,
	)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Debug().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
