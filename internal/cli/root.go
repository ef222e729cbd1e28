package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"rewards/internal/amqp"
	"rewards/internal/backend"
	"rewards/internal/config"
	"rewards/internal/log"
	"rewards/internal/services"
)

// Deps lets callers replace the store and queue connections; nil fields use
// the configured backend and AMQP broker.
type Deps struct {
	OpenBackend   func(ctx context.Context, logger *log.Logger, cfg *config.Config) (*backend.BackendResult, error)
	OpenPublisher func(cfg *config.Config) (services.Publisher, func() error, error)
}

type rootOptions struct {
	backend  string
	logLevel string

	deps   Deps
	cfg    *config.Config
	logger *log.Logger
}

// NewRootCmd builds the rewardsctl command tree.
func NewRootCmd(deps Deps) *cobra.Command {
	if deps.OpenBackend == nil {
		deps.OpenBackend = OpenBackend
	}
	if deps.OpenPublisher == nil {
		deps.OpenPublisher = openAMQPPublisher
	}
	opts := &rootOptions{deps: deps}

	root := &cobra.Command{
		Use:           "rewardsctl",
		Short:         "Query and feed the loyalty rewards service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			LoadEnvFile()
			cfg := config.Load()
			if opts.backend != "" {
				cfg.DataBackend = opts.backend
			}
			if opts.logLevel != "" {
				cfg.LogLevel = opts.logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = SetupLogger(cfg.LogLevel, cfg.LogFormat, log.ComponentApp)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "record store to read (memory|sqlite|sheets|mongodb), overrides DATA_BACKEND")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level, overrides LOG_LEVEL")

	root.AddCommand(
		newAllCmd(opts),
		newAccountCmd(opts),
		newPointsCmd(),
		newPublishCmd(opts),
	)
	return root
}

// withRewards opens the configured store and runs fn with a reward service over it.
func (o *rootOptions) withRewards(ctx context.Context, fn func(*services.RewardService) error) error {
	res, err := o.deps.OpenBackend(ctx, o.logger, o.cfg)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer res.Close()

	return fn(services.NewRewardService(res.Source, o.logger.WithComponent(log.ComponentRewards)))
}

func openAMQPPublisher(cfg *config.Config) (services.Publisher, func() error, error) {
	if cfg.AMQPURL == "" {
		return nil, nil, fmt.Errorf("AMQP_URL is not set")
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, nil, err
	}
	return client, client.Close, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
