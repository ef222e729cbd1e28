package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"rewards/internal/core"
	"rewards/internal/log"
	"rewards/internal/records"
	"rewards/internal/services"
)

func newAllCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Print the reward summary of every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRewards(cmd.Context(), func(svc *services.RewardService) error {
				summaries, err := svc.GetAllRewards(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summaries)
			})
		},
	}
}

func newAccountCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "account ACCOUNT_ID",
		Short: "Print the reward summary of one account",
		Long: `Print the monthly and total reward points of one account.
An unknown account prints an empty summary rather than failing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRewards(cmd.Context(), func(svc *services.RewardService) error {
				summary, err := svc.GetRewardsForAccount(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), summary)
			})
		},
	}
}

func newPointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "points AMOUNT...",
		Short: "Print the points earned by each purchase amount",
		Args:  cobra.MinimumNArgs(1),
		// the point formula needs no configuration
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				amount, err := core.ParseAmount(arg)
				if err != nil {
					return fmt.Errorf("%q: %w", arg, err)
				}
				if amount.IsNegative() {
					return fmt.Errorf("%w: negative amount %s", core.ErrInvalidTransaction, arg)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", amount.StringFixed(2), core.CalculatePoints(amount))
			}
			return nil
		},
	}
}

func newPublishCmd(opts *rootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Queue the purchases of a TOML seed file for the ingest worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := records.LoadSeedFile(file)
			if err != nil {
				return err
			}

			pub, closePub, err := opts.deps.OpenPublisher(opts.cfg)
			if err != nil {
				return fmt.Errorf("connect to queue: %w", err)
			}
			if closePub != nil {
				defer closePub()
			}

			n, err := services.NewIngestService(nil, pub, "cli").PublishAll(cmd.Context(), recs)
			if err != nil {
				opts.logger.Error("Publish stopped", log.FieldError, err.Error(),
					log.FieldOperation, log.OpPublish, "published", n)
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %d purchases\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "TOML seed file with [[purchase]] entries")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
