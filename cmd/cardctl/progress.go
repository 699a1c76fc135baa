package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"cardquiz/internal/config"
	"cardquiz/internal/models"
	"cardquiz/internal/progress"
	"cardquiz/internal/repository"
)

var progressCmd = &cobra.Command{
	Use:   "progress <user-id|email>",
	Short: "Print a learner's progress metrics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		window, _ := cmd.Flags().GetInt("window")
		tz, _ := cmd.Flags().GetString("tz")

		loc, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("unknown time zone %q: %w", tz, err)
		}

		cfg := config.Load()
		db, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		users := repository.NewUserRepository(db)
		var user *models.User
		if id, convErr := strconv.ParseInt(args[0], 10, 64); convErr == nil {
			user, err = users.GetUserByID(ctx, id)
		} else {
			user, err = users.GetUserByEmail(ctx, args[0])
		}
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("user %s not found", args[0])
		}

		now := time.Now().In(loc)
		sessions := repository.NewSessionRepository(db)
		recorded, err := sessions.SessionsForUser(ctx, user.ID, now.AddDate(-1, 0, -1))
		if err != nil {
			return err
		}
		interactions, err := sessions.InteractionsForUser(ctx, user.ID, now.AddDate(0, 0, -window))
		if err != nil {
			return err
		}

		metrics := progress.ComputeMetrics(recorded, interactions, now, window)
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(metrics)
	},
}

func init() {
	progressCmd.Flags().Int("window", progress.DefaultWindowDays, "Trailing window in days")
	progressCmd.Flags().String("tz", "UTC", "IANA time zone used for calendar days")
	rootCmd.AddCommand(progressCmd)
}
