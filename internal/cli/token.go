package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewTokenCommand creates the token command.
func NewTokenCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an embed config for the configured report",
		Long: `Exchange the service principal for an embed token and print the embed
config as JSON, exactly as GET /api/powerbi returns it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			logger := GetLogger(cmd.Context())

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			a := newApp(cfg, logger)
			if err := a.start(ctx); err != nil {
				return err
			}
			defer a.stop(context.WithoutCancel(ctx))

			embed, err := a.embedService().EmbedConfig(ctx)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(embed, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode embed config: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "Give up after this long")

	return cmd
}
