package main

import (
	"fmt"

	apperrors "github.com/robertpelloni/jules-app/internal/errors"
	"github.com/robertpelloni/jules-app/internal/model"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models [provider]",
	Short: "List available models for a provider",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := model.NewRegistry()

		if len(args) == 0 {
			for _, name := range registry.Names() {
				fmt.Println(name)
			}
			return nil
		}

		provider, found := registry.Lookup(args[0])
		if !found {
			return fmt.Errorf("provider %q: %w", args[0], apperrors.ErrNotFound)
		}

		apiKey, _ := cmd.Flags().GetString("api-key")
		for _, m := range provider.ListModels(cmd.Context(), apiKey) {
			fmt.Println(m)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().String("api-key", "", "API key for live model listing")
}
