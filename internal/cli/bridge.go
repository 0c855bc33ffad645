package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/suteetoe/tenant-onboarding/internal/pipeline"
	"github.com/suteetoe/tenant-onboarding/pkg/config"
)

func newBridgeCommand(getConfig func() *config.Config) *cobra.Command {
	var job pipeline.Job

	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Resolve pipeline variables for a provisioning job",
		Long: `Reads the provisioning tenant's stack mapping and the shared stack metadata,
reports them to the pipeline engine as output variables and prints the outcome.
Without --tenant-path the last Provisioning tenant found is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			log := startupLog(cfg, "pipeline bridge")

			a, err := buildApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			out := a.bridge.Run(cmd.Context(), job)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return err
			}
			if !out.Succeeded {
				return errors.New(out.Failure.Message)
			}
			if out.ReportError != "" {
				return fmt.Errorf("job resolved but not reported: %s", out.ReportError)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&job.ID, "job-id", "", "pipeline job id")
	cmd.Flags().StringVar(&job.TenantPath, "tenant-path", "", "routing path of the tenant being provisioned")
	_ = cmd.MarkFlagRequired("job-id")
	return cmd
}
