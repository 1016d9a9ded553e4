package cli

import (
	"context"
	"log"

	"github.com/spf13/cobra"
	"quiz-session-service/internal/config"
)

// NewSeedCmd creates the admin account and loads the sample quizzes into an empty store.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account and sample quizzes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	svc, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := bootstrap(ctx, svc, cfg); err != nil {
		return err
	}
	log.Printf("seed complete")
	return nil
}
