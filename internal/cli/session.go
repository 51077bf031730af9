package cli

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/grove-app/grove/internal/domain"
)

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionPauseCmd)
	sessionCmd.AddCommand(sessionResumeCmd)
	sessionCmd.AddCommand(sessionCompleteCmd)
	sessionCmd.AddCommand(sessionCancelCmd)
	sessionCmd.AddCommand(sessionStatusCmd)

	sessionStartCmd.Flags().IntP("minutes", "m", 25, "target duration in minutes")
	sessionStartCmd.Flags().String("category", "", "category id")
	sessionStartCmd.Flags().String("task", "", "linked task id")
	sessionStartCmd.Flags().StringP("description", "d", "", "what you are focusing on")
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Start and control focus sessions",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a focus session",
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, _ := cmd.Flags().GetInt("minutes")
		category, _ := cmd.Flags().GetString("category")
		task, _ := cmd.Flags().GetString("task")
		description, _ := cmd.Flags().GetString("description")

		c, err := newClient()
		if err != nil {
			return err
		}
		var sess domain.FocusSession
		err = c.post("/api/session/start", map[string]any{
			"targetMinutes": minutes,
			"categoryId":    category,
			"taskId":        task,
			"description":   description,
		}, &sess)
		if err != nil {
			return err
		}
		color.Green("Focus session started: %d minutes", sess.TargetDuration)
		return nil
	},
}

func sessionActionCmd(use, short, path, done string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			var sess domain.FocusSession
			if err := c.post(path, nil, &sess); err != nil {
				return err
			}
			fmt.Println(done)
			if sess.Status == domain.SessionCompleted {
				color.Green("Focused %d minutes, earned %d seeds", sess.Duration, sess.SeedsEarned)
			}
			return nil
		},
	}
}

var sessionPauseCmd = sessionActionCmd("pause", "Pause the current session", "/api/session/pause", "Session paused.")
var sessionResumeCmd = sessionActionCmd("resume", "Resume the paused session", "/api/session/resume", "Session resumed.")
var sessionCompleteCmd = sessionActionCmd("complete", "Complete the current session", "/api/session/complete", "Session completed.")
var sessionCancelCmd = sessionActionCmd("cancel", "Cancel the current session", "/api/session/cancel", "Session cancelled.")

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		var sess struct {
			domain.FocusSession
			ElapsedSeconds   int `json:"elapsedSeconds"`
			RemainingSeconds int `json:"remainingSeconds"`
		}
		if err := c.get("/api/session/current", &sess); err != nil {
			fmt.Println("No session in progress.")
			return nil
		}

		// The daemon owns the countdown math; pauses (open ones included)
		// are already excluded.
		elapsed := time.Duration(sess.ElapsedSeconds) * time.Second
		remaining := time.Duration(sess.RemainingSeconds) * time.Second
		switch sess.Status {
		case domain.SessionPaused:
			color.Yellow("Paused: %s elapsed, %s remaining", elapsed.Round(time.Second), remaining.Round(time.Second))
		default:
			color.Cyan("Focusing: %s elapsed, %s remaining", elapsed.Round(time.Second), remaining.Round(time.Second))
		}
		if sess.Description != "" {
			fmt.Println(" ", sess.Description)
		}
		return nil
	},
}
