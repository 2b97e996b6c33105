package commands

import (
	"fmt"
	"strings"

	"github.com/financeos/financeos/internal/policy"
	"github.com/spf13/cobra"
)

func NewPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage risk policy and autonomy mode",
	}

	cmd.AddCommand(
		newPolicyShowCmd(),
		newPolicySetCmd(),
		newPolicyKillswitchCmd(),
		newPolicyResetCmd(),
	)

	return cmd
}

func newPolicyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current policy state",
		RunE:  runPolicyShow,
	}
}

func newPolicySetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update policy fields",
		RunE:  runPolicySet,
	}
	cmd.Flags().String("autonomy", "", "Autonomy mode (readonly|suggest|confirm|auto)")
	cmd.Flags().Float64("max-daily-loss", -1, "Max daily loss percent")
	cmd.Flags().Float64("max-position-size", -1, "Max position size percent")
	cmd.Flags().Float64("max-crypto-allocation", -1, "Max crypto allocation percent")
	cmd.Flags().String("leverage", "", "Allow leveraged trades (on|off)")
	return cmd
}

func newPolicyKillswitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "killswitch",
		Short: "Activate the kill switch (halts all actions)",
		RunE:  runPolicyKillswitch,
	}
}

func newPolicyResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset policy to defaults and clear the kill switch",
		RunE:  runPolicyReset,
	}
}

func runPolicyShow(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	state := platform.Policies.Load()
	fmt.Println("Policy state:")
	fmt.Printf("  autonomy: %s\n", state.AutonomyMode)
	fmt.Printf("  max_daily_loss_pct: %.1f\n", state.MaxDailyLossPct)
	fmt.Printf("  max_position_size_pct: %.1f\n", state.MaxPositionSizePct)
	fmt.Printf("  max_crypto_allocation_pct: %.1f\n", state.MaxCryptoAllocationPct)
	fmt.Printf("  allow_leverage: %t\n", state.AllowLeverage)
	if state.KillSwitch {
		fmt.Println("  kill_switch: ACTIVE (run 'financeos policy reset' to clear)")
	} else {
		fmt.Println("  kill_switch: off")
	}
	return nil
}

func runPolicySet(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	state := platform.Policies.Load()
	changed := false

	if autonomy, _ := cmd.Flags().GetString("autonomy"); strings.TrimSpace(autonomy) != "" {
		mode := policy.AutonomyMode(strings.ToLower(strings.TrimSpace(autonomy)))
		switch mode {
		case policy.AutonomyReadOnly, policy.AutonomySuggest, policy.AutonomyConfirm, policy.AutonomyAuto:
			state.AutonomyMode = mode
			changed = true
		default:
			return fmt.Errorf("invalid autonomy mode: %q", autonomy)
		}
	}
	if v, _ := cmd.Flags().GetFloat64("max-daily-loss"); v >= 0 {
		state.MaxDailyLossPct = v
		changed = true
	}
	if v, _ := cmd.Flags().GetFloat64("max-position-size"); v >= 0 {
		state.MaxPositionSizePct = v
		changed = true
	}
	if v, _ := cmd.Flags().GetFloat64("max-crypto-allocation"); v >= 0 {
		state.MaxCryptoAllocationPct = v
		changed = true
	}
	if leverage, _ := cmd.Flags().GetString("leverage"); strings.TrimSpace(leverage) != "" {
		switch strings.ToLower(strings.TrimSpace(leverage)) {
		case "on", "true", "yes":
			state.AllowLeverage = true
		case "off", "false", "no":
			state.AllowLeverage = false
		default:
			return fmt.Errorf("invalid --leverage value: %q", leverage)
		}
		changed = true
	}

	if !changed {
		return fmt.Errorf("no policy fields given, see 'financeos policy set --help'")
	}

	if err := platform.Policies.Update(state); err != nil {
		return err
	}
	fmt.Println("Policy updated.")
	return runPolicyShow(cmd, args)
}

func runPolicyKillswitch(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	state := platform.Policies.Load()
	state.KillSwitch = true
	if err := platform.Policies.Update(state); err != nil {
		return err
	}
	fmt.Println("Kill switch ACTIVATED. All actions are halted until 'financeos policy reset'.")
	return nil
}

func runPolicyReset(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	if err := platform.Policies.Reset(); err != nil {
		return err
	}
	fmt.Println("Policy reset to defaults.")
	return nil
}
