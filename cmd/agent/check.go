package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tokimonsterAI/agent/internal/character"
	"github.com/tokimonsterAI/agent/internal/config"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the character file and the X/Twitter configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		char, cfg, err := loadCharacterConfig(characterPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "character %q: configuration ok (user @%s, %d target users, dry run %t)\n",
			char.Name, cfg.Username, len(cfg.TargetUsers), cfg.DryRun)
		return nil
	},
}

// loadCharacterConfig loads the character profile and the configuration
// overlaid by its settings. Validation failures are logged one per violation.
func loadCharacterConfig(path string) (*character.Character, *config.Config, error) {
	char, err := character.Load(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(char.Settings)
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			for _, v := range verr.Violations {
				logger.Error("invalid configuration", zap.String("path", v.Path), zap.String("reason", v.Message))
			}
		}
		return nil, nil, err
	}
	return char, cfg, nil
}
