package commands

import (
	"fmt"
	"strings"

	"github.com/financeos/financeos/internal/actions"
	"github.com/financeos/financeos/internal/dispatch"
	"github.com/spf13/cobra"
)

func NewActionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Submit governed actions",
	}

	cmd.AddCommand(newActionSubmitCmd())

	return cmd
}

func newActionSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit an action through the policy pipeline",
		RunE:  runActionSubmit,
	}

	cmd.Flags().StringP("module", "m", "", "Module submitting the action (required)")
	cmd.Flags().StringP("kind", "k", "", "Action kind (trade|move_funds|notify) (required)")
	cmd.Flags().StringP("summary", "s", "", "Human-readable summary")
	cmd.Flags().String("symbol", "", "Trade symbol, e.g. BTCUSDT")
	cmd.Flags().String("side", "", "Trade side (buy|sell)")
	cmd.Flags().Float64("amount", 0, "Trade amount")
	cmd.Flags().Bool("leverage", false, "Trade uses leverage")
	cmd.Flags().String("channel", "", "Notify channel (email|sms|push)")
	cmd.Flags().String("message", "", "Notify message")
	cmd.MarkFlagRequired("module")
	cmd.MarkFlagRequired("kind")

	return cmd
}

func runActionSubmit(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	moduleID, _ := cmd.Flags().GetString("module")
	kind, _ := cmd.Flags().GetString("kind")
	summary, _ := cmd.Flags().GetString("summary")
	if strings.TrimSpace(summary) == "" {
		summary = kind
	}

	request := actions.NewRequest(moduleID, kind, summary)

	if symbol, _ := cmd.Flags().GetString("symbol"); strings.TrimSpace(symbol) != "" {
		side, _ := cmd.Flags().GetString("side")
		amount, _ := cmd.Flags().GetFloat64("amount")
		leverage, _ := cmd.Flags().GetBool("leverage")
		request = request.WithTrade(actions.TradeIntent{
			Symbol:   strings.ToUpper(strings.TrimSpace(symbol)),
			Side:     actions.TradeSide(strings.ToLower(side)),
			Amount:   amount,
			Leverage: leverage,
		})
	}

	if channel, _ := cmd.Flags().GetString("channel"); strings.TrimSpace(channel) != "" {
		message, _ := cmd.Flags().GetString("message")
		request = request.WithNotify(actions.NotifyIntent{
			Channel: actions.NotifyChannel(strings.ToLower(strings.TrimSpace(channel))),
			Message: message,
		})
	}

	result, err := platform.Dispatcher.Dispatch(cmd.Context(), request)
	if err != nil {
		return err
	}

	switch result.Status {
	case dispatch.StatusExecuted:
		fmt.Printf("Action %s executed.\n", request.ID)
	case dispatch.StatusNeedsApproval:
		fmt.Printf("Action %s needs approval. Run 'financeos approvals approve %s' to confirm.\n", request.ID, request.ID)
	case dispatch.StatusDenied:
		fmt.Printf("Action %s denied: %s\n", request.ID, result.Reason)
	default:
		fmt.Printf("Action %s: %s\n", request.ID, result.Status)
	}

	return nil
}
