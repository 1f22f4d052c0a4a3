package main

import (
	"fmt"
	"time"

	"github.com/robertpelloni/jules-app/internal/jules"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List Jules sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := buildJulesClient()
		if err != nil {
			return err
		}

		sessions, err := client.ListSessions(cmd.Context())
		if err != nil {
			return err
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		fmt.Println(renderSessionsTable(sessions))
		return nil
	},
}

func renderSessionsTable(sessions []jules.Session) string {
	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")

	headerStyle := lipgloss.NewStyle().Foreground(purple).Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Foreground(gray).Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(purple)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("ID", "Title", "Status", "Last Activity")

	for _, sess := range sessions {
		t.Row(
			truncateCell(sess.ID, 12),
			truncateCell(sess.Title, 40),
			string(sess.Status),
			sess.LastActivity().Format(time.DateTime),
		)
	}

	return t.String()
}

func truncateCell(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new <title>",
	Short: "Create a new session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt, _ := cmd.Flags().GetString("prompt")
		source, _ := cmd.Flags().GetString("source")

		client, err := buildJulesClient()
		if err != nil {
			return err
		}

		if source == "" {
			sources, err := client.ListSources(cmd.Context())
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				return fmt.Errorf("no sources available; connect a repository first")
			}
			source = sources[0].ID
			fmt.Printf("Using source %s (%s)\n", source, sources[0].Repo)
		}

		sess, err := client.CreateSession(cmd.Context(), jules.CreateSessionRequest{
			Title:  args[0],
			Prompt: prompt,
			Source: source,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Created session %s\n", sess.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsNewCmd)
	sessionsNewCmd.Flags().String("prompt", "", "initial prompt for the agent")
	sessionsNewCmd.Flags().String("source", "", "source repository ID (defaults to the first available)")
}
