package cli

import (
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/grove-app/grove/internal/domain"
)

func init() {
	rootCmd.AddCommand(tasksCmd)
	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksAddCmd)

	tasksListCmd.Flags().String("date", "", "only tasks on this day (YYYY-MM-DD)")
	tasksAddCmd.Flags().String("date", "", "scheduled day (YYYY-MM-DD)")
	tasksAddCmd.Flags().String("at", "", "start time (HH:MM)")
	tasksAddCmd.Flags().IntP("minutes", "m", 30, "estimated duration in minutes")
	tasksAddCmd.Flags().String("category", "", "category id")
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Plan and track tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		c, err := newClient()
		if err != nil {
			return err
		}
		path := "/api/tasks/"
		if date != "" {
			path += "?date=" + date
		}
		var tasks []domain.Task
		if err := c.get(path, &tasks); err != nil {
			return err
		}

		table := uitable.New()
		table.MaxColWidth = 40
		table.AddRow("DATE", "TIME", "TITLE", "STATUS", "FOCUSED")
		for _, task := range tasks {
			table.AddRow(
				task.Date.Format("2006-01-02"),
				task.StartTime,
				task.Title,
				string(task.Status),
				task.Progress.FocusTimeSpent,
			)
		}
		cmd.Println(table)
		return nil
	},
}

var tasksAddCmd = &cobra.Command{
	Use:   "add TITLE",
	Short: "Schedule a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		at, _ := cmd.Flags().GetString("at")
		minutes, _ := cmd.Flags().GetInt("minutes")
		category, _ := cmd.Flags().GetString("category")
		if date == "" {
			date = time.Now().Format("2006-01-02")
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		var task domain.Task
		err = c.post("/api/tasks/", map[string]any{
			"title":           args[0],
			"date":            date,
			"startTime":       at,
			"durationMinutes": minutes,
			"categoryId":      category,
		}, &task)
		if err != nil {
			return err
		}
		cmd.Printf("Task %q scheduled for %s.\n", task.Title, task.Date.Format("2006-01-02"))
		return nil
	},
}
