package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hatchery-inc/hatchery/internal/application/instance/dto"
	"github.com/hatchery-inc/hatchery/internal/domain/instance"
	"github.com/hatchery-inc/hatchery/internal/infrastructure/database"
	"github.com/hatchery-inc/hatchery/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/hatchery-inc/hatchery/internal/interfaces/http"
	"github.com/hatchery-inc/hatchery/internal/shared/id"
)

var (
	opts        bootstrap.Options
	instanceSID string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Deployment monitor tools",
		Long:  `Inspect and drive the deployment monitor without starting the HTTP server.`,
	}

	cmd.PersistentFlags().StringVarP(&opts.Env, "env", "e", "development", "Environment (development, test, production)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")

	cmd.AddCommand(
		newCheckCommand(),
		newStatsCommand(),
		newWaitCommand(),
	)

	return cmd
}

func newCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check one instance, or sweep every pending instance",
		RunE:  runCheck,
	}
	cmd.Flags().StringVar(&instanceSID, "instance", "", "Instance ID (inst_xxx); empty runs a full sweep")
	return cmd
}

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print instance counts by lifecycle state",
		RunE:  runStats,
	}
}

func newWaitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wait",
		Short: "Block until the instance's current deployment settles",
		RunE:  runWait,
	}
	cmd.Flags().StringVar(&instanceSID, "instance", "", "Instance ID (inst_xxx)")
	_ = cmd.MarkFlagRequired("instance")
	return cmd
}

func withContainer(cmd *cobra.Command, fn func(ctx context.Context, c *httpRouter.Container) error) error {
	if instanceSID != "" {
		if err := id.ValidatePrefix(instanceSID, id.PrefixInstance); err != nil {
			return err
		}
	}

	cfg, log, err := bootstrap.Init(opts)
	if err != nil {
		return err
	}
	defer database.Close()

	c, err := httpRouter.NewContainer(database.Get(), cfg, log)
	if err != nil {
		return err
	}
	defer c.Shutdown()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return fn(ctx, c)
}

func runCheck(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, func(ctx context.Context, c *httpRouter.Container) error {
		sweep, check, err := c.Monitor().ManualCheck(ctx, instanceSID)
		if err != nil {
			return err
		}
		if check != nil {
			return printJSON(cmd.OutOrStdout(), dto.ToCheckResultDTO(check))
		}
		return printJSON(cmd.OutOrStdout(), dto.ToSweepResultDTO(sweep))
	})
}

func runStats(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, func(ctx context.Context, c *httpRouter.Container) error {
		stats, err := c.Monitor().GetStats(ctx)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), dto.ToMonitorStatsDTO(stats))
	})
}

// runWait polls the deployment until it settles, then records the outcome
// through a regular check so activation and logging stay in one place.
func runWait(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, func(ctx context.Context, c *httpRouter.Container) error {
		inst, err := c.InstanceRepository().GetBySID(ctx, instanceSID)
		if err != nil {
			return err
		}
		if inst == nil {
			return fmt.Errorf("%w: %s", instance.ErrInstanceNotFound, instanceSID)
		}

		_, waitErr := c.Waiter().Wait(ctx, inst.DeploymentID())

		_, check, err := c.Monitor().ManualCheck(ctx, instanceSID)
		if err != nil {
			return err
		}
		if err := printJSON(cmd.OutOrStdout(), dto.ToCheckResultDTO(check)); err != nil {
			return err
		}
		return waitErr
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
