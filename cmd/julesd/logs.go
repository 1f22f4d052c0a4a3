package main

import (
	"fmt"
	"time"

	"github.com/robertpelloni/jules-app/internal/keeper"

	"charm.land/lipgloss/v2"
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent keeper journal entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		n, _ := cmd.Flags().GetInt("count")

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		entries, err := st.RecentLogs(n)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No journal entries yet.")
			return nil
		}

		for _, entry := range entries {
			fmt.Println(renderLogEntry(entry))
		}
		return nil
	},
}

var logKindStyles = map[keeper.EntryKind]lipgloss.Style{
	keeper.KindAction: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
	keeper.KindError:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	keeper.KindSkip:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	keeper.KindInfo:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
}

func renderLogEntry(entry keeper.Entry) string {
	style, ok := logKindStyles[entry.Kind]
	if !ok {
		style = lipgloss.NewStyle()
	}
	return fmt.Sprintf("%s %s %s",
		entry.Time.Format(time.TimeOnly),
		style.Render(fmt.Sprintf("%-6s", entry.Kind)),
		entry.Message,
	)
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().IntP("count", "n", 50, "number of entries to show")
}
