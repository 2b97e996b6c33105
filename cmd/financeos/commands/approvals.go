package commands

import (
	"fmt"
	"strings"

	"github.com/financeos/financeos/internal/approvals"
	"github.com/spf13/cobra"
)

func NewApprovalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approvals",
		Short: "Manage pending action approvals",
	}

	cmd.AddCommand(
		newApprovalsListCmd(),
		newApprovalsApproveCmd(),
		newApprovalsRejectCmd(),
		newApprovalsExpireCmd(),
	)

	return cmd
}

func newApprovalsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List approval records",
		RunE:  runApprovalsList,
	}
	cmd.Flags().String("status", "pending", "Filter by status (pending|approved|rejected|expired|all)")
	return cmd
}

func newApprovalsApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve <action_id>",
		Short: "Approve a pending action",
		Args:  cobra.ExactArgs(1),
		RunE:  runApprovalsApprove,
	}
	cmd.Flags().String("note", "", "Decision note")
	return cmd
}

func newApprovalsRejectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reject <action_id>",
		Short: "Reject a pending action",
		Args:  cobra.ExactArgs(1),
		RunE:  runApprovalsReject,
	}
	cmd.Flags().String("note", "", "Decision note")
	return cmd
}

func newApprovalsExpireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Mark overdue pending approvals as expired",
		RunE:  runApprovalsExpire,
	}
}

func runApprovalsList(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	statusFlag, _ := cmd.Flags().GetString("status")
	var status approvals.Status
	if !strings.EqualFold(statusFlag, "all") {
		status = approvals.Status(strings.ToLower(strings.TrimSpace(statusFlag)))
	}

	records := platform.Approvals.List(status)
	if len(records) == 0 {
		fmt.Println("No approvals.")
		return nil
	}

	for _, record := range records {
		fmt.Printf("%s  %-9s  %s  %s\n",
			record.ID,
			record.Status,
			record.RequestedAt.Local().Format("2006-01-02 15:04"),
			truncate(record.Request.Summary, 50))
	}
	return nil
}

func runApprovalsApprove(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	note, _ := cmd.Flags().GetString("note")
	record, err := platform.Approvals.Approve(args[0], note)
	if err != nil {
		return err
	}
	fmt.Printf("Approval %s approved.\n", record.ID)
	return nil
}

func runApprovalsReject(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	note, _ := cmd.Flags().GetString("note")
	record, err := platform.Approvals.Reject(args[0], note)
	if err != nil {
		return err
	}
	fmt.Printf("Approval %s rejected.\n", record.ID)
	return nil
}

func runApprovalsExpire(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	expired, err := platform.Approvals.ExpirePending()
	if err != nil {
		return err
	}
	fmt.Printf("%d approvals expired.\n", len(expired))
	return nil
}
