package cli

import (
	"github.com/spf13/cobra"
	"github.com/suteetoe/tenant-onboarding/internal/model"
	"github.com/suteetoe/tenant-onboarding/pkg/config"
	"go.uber.org/zap"
)

func newSeedStackCommand(getConfig func() *config.Config) *cobra.Command {
	var md model.StackMetadata

	cmd := &cobra.Command{
		Use:   "seed-stack",
		Short: "Write the shared stack metadata record",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			log := startupLog(cfg, "stack seed")

			a, err := buildApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			if md.StackName == "" {
				md.StackName = cfg.Pipeline.StackName
			}
			if err := a.metadata.Save(cmd.Context(), &md); err != nil {
				return err
			}
			log.Info("Stack metadata saved",
				zap.String("stack_name", md.StackName),
				zap.String("elb_url", md.ELBURL))
			return nil
		},
	}

	cmd.Flags().StringVar(&md.StackName, "stack-name", "", "stack name (defaults to STACK_NAME)")
	cmd.Flags().StringVar(&md.ELBURL, "elb-url", "", "load balancer URL of the shared stack")
	cmd.Flags().StringVar(&md.PipelineServiceRoleArn, "pipeline-role-arn", "", "role assumed by pipeline stages")
	cmd.Flags().StringVar(&md.WorkloadIAMRoleArn, "workload-role-arn", "", "role assumed by tenant workloads")
	_ = cmd.MarkFlagRequired("elb-url")
	return cmd
}
