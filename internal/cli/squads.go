package cli

import (
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/grove-app/grove/internal/domain"
)

func init() {
	rootCmd.AddCommand(squadsCmd)
	squadsCmd.AddCommand(squadsListCmd)
	squadsCmd.AddCommand(squadsCreateCmd)

	squadsCreateCmd.Flags().StringP("description", "d", "", "what this squad is about")
}

var squadsCmd = &cobra.Command{
	Use:   "squads",
	Short: "Focus together with squads",
}

var squadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List squads and weekly member stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		var squads []domain.Squad
		if err := c.get("/api/squads/", &squads); err != nil {
			return err
		}

		table := uitable.New()
		table.AddRow("NAME", "MEMBERS", "WEEKLY MINUTES")
		for _, sq := range squads {
			var weekly int
			for _, ms := range sq.MemberStats {
				weekly += ms.WeeklyFocusMinutes
			}
			table.AddRow(sq.Name, len(sq.MemberIDs), weekly)
		}
		cmd.Println(table)
		return nil
	},
}

var squadsCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a squad",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		c, err := newClient()
		if err != nil {
			return err
		}
		var squad domain.Squad
		err = c.post("/api/squads/", map[string]any{
			"name":        args[0],
			"description": description,
		}, &squad)
		if err != nil {
			return err
		}
		cmd.Printf("Squad %q created.\n", squad.Name)
		return nil
	},
}
