package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/suteetoe/tenant-onboarding/pkg/config"
	"github.com/suteetoe/tenant-onboarding/pkg/logger"
	"go.uber.org/zap"
)

// ServiceName identifies this service in logs, metrics and service tokens.
const ServiceName = "tenant-onboarding"

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "tenant-onboarding",
		Short:         "Tenant onboarding control plane",
		Long:          `Registers tenants, provisions their identity tenancy and first user, and hands provisioning parameters to the deployment pipeline.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(ServiceName)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			cfg = loaded

			return logger.InitLogger(&logger.LogConfig{
				Level:       cfg.Log.Level,
				Environment: cfg.Server.Env,
				ServiceName: cfg.ServiceName,
			})
		},
	}

	getConfig := func() *config.Config { return cfg }
	root.AddCommand(newServeCommand(getConfig))
	root.AddCommand(newBridgeCommand(getConfig))
	root.AddCommand(newSeedStackCommand(getConfig))
	return root
}

func startupLog(cfg *config.Config, command string) *zap.Logger {
	log := logger.GetLogger()
	log.Info("Starting "+command, cfg.LogConfig()...)
	return log
}
