package commands

import (
	"fmt"
	"strings"

	"github.com/financeos/financeos/internal/render"
	"github.com/spf13/cobra"
)

func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate and read CEO AI reports",
	}

	cmd.AddCommand(
		newReportGenerateCmd(),
		newReportListCmd(),
		newReportShowCmd(),
	)

	return cmd
}

func newReportGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate a report from current portfolio data",
		RunE:  runReportGenerate,
	}
}

func newReportListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored reports, newest first",
		RunE:  runReportList,
	}
}

func newReportShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [report_id]",
		Short: "Show a report (latest when no id is given)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReportShow,
	}
}

func runReportGenerate(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Println("Generating report...")
	report, err := platform.Generator.Generate(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Print(render.ANSI(render.ReportMarkdown(report)))
	return nil
}

func runReportList(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	reports := platform.Reports.List()
	if len(reports) == 0 {
		fmt.Println("No reports yet. Run 'financeos report generate'.")
		return nil
	}

	for _, r := range reports {
		fmt.Printf("%s  %s  %s\n",
			r.ID,
			r.TS.Local().Format("2006-01-02 15:04"),
			truncate(strings.ReplaceAll(r.Summary, "\n", " "), 70))
	}
	return nil
}

func runReportShow(cmd *cobra.Command, args []string) error {
	platform, err := newPlatform(cmd.Context())
	if err != nil {
		return err
	}

	if len(args) == 1 {
		report, ok := platform.Reports.Get(args[0])
		if !ok {
			return fmt.Errorf("report not found: %s", args[0])
		}
		fmt.Print(render.ANSI(render.ReportMarkdown(report)))
		return nil
	}

	report, ok := platform.Reports.Latest()
	if !ok {
		fmt.Println("No reports yet. Run 'financeos report generate'.")
		return nil
	}
	fmt.Print(render.ANSI(render.ReportMarkdown(report)))
	return nil
}
