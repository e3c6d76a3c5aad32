package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/diillson/aws-macie-tagger-go/internal/adapter/driven/dryrun"
	"github.com/diillson/aws-macie-tagger-go/internal/application/usecase"
	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
	"github.com/diillson/aws-macie-tagger-go/internal/shared/logger"
	"github.com/diillson/aws-macie-tagger-go/internal/shared/types"
	"github.com/diillson/aws-macie-tagger-go/pkg/console"
)

const defaultReportName = "macie-tagging-report"

func (app *CLIApp) newProcessCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Replay Macie results objects through the tagging handler logic",
		RunE:  app.runProcess,
	}
	cmd.Flags().StringP("bucket", "b", "", "Results bucket")
	cmd.Flags().StringSliceP("key", "k", nil, "Results object key (repeatable)")
	cmd.Flags().String("version-id", "", "Version of the results object (single key only)")
	cmd.Flags().Bool("dry-run", false, "Read findings and current state but write nothing")
	cmd.Flags().StringP("report-name", "n", "", "Specify the base name for the report file (without extension)")
	cmd.Flags().StringSliceP("report-type", "y", []string{"csv"}, "Specify report types: csv, json, pdf")
	cmd.Flags().StringP("dir", "d", "", "Directory to save the report files (default: current directory)")
	_ = cmd.MarkFlagRequired("bucket")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func (app *CLIApp) runProcess(cmd *cobra.Command, _ []string) error {
	args, cfg, awsRepo, storage, err := app.prepare(cmd)
	if err != nil {
		return err
	}
	if args.VersionID != "" && len(args.Keys) > 1 {
		return errors.New("--version-id can only be used with a single --key")
	}
	ctx := cmd.Context()

	status := app.console.Status("Resolving AWS account...")
	accountID, err := awsRepo.GetAccountID(ctx)
	status.Stop()
	if err != nil {
		app.console.LogWarning("Unable to resolve account ID: %v", err)
	}

	log := app.cliLogger(cfg)
	if args.DryRun {
		storage = dryrun.NewStorageRepository(storage, log)
		app.console.LogWarning("Dry run: no tags or lifecycle rules will be written")
	}
	tagger := usecase.NewTaggingUseCase(storage, cfg.Tagger, log)

	report := entity.ProcessReport{AccountID: accountID, DryRun: args.DryRun}
	var errs []error

	progress := app.console.ProgressWithTotal("Processing results objects", len(args.Keys))
	for _, key := range args.Keys {
		ref := entity.ObjectRef{Bucket: args.Bucket, Key: key, VersionID: args.VersionID}
		partial, err := tagger.ProcessObjects(ctx, []entity.ObjectRef{ref})
		report.Merge(partial)
		if err != nil {
			errs = append(errs, err)
		}
		progress.Increment()
	}
	progress.Stop()

	app.displayReport(report)
	app.exportReport(report, args)

	if err := errors.Join(errs...); err != nil {
		app.console.LogError("Finished with errors: %d tagging and %d lifecycle failures",
			report.Summary.TaggingFailed, report.Summary.LifecycleFailed)
		return err
	}
	app.console.LogSuccess("Processed %d findings from %d results objects", report.Summary.Findings, report.Summary.Records)
	return nil
}

func (app *CLIApp) displayReport(report entity.ProcessReport) {
	if len(report.Outcomes) > 0 {
		table := app.console.CreateTable()
		table.AddColumn("Source")
		table.AddColumn("Line")
		table.AddColumn("Target")
		table.AddColumn("Severity")
		table.AddColumn("Action")
		table.AddColumn("Tag")
		table.AddColumn("Lifecycle")
		table.AddColumn("Error")

		for _, o := range report.Outcomes {
			target := ""
			if o.Finding.HasTarget() {
				target = o.Finding.Target.String()
			}
			table.AddRow(
				o.Source.String(),
				o.Line,
				target,
				console.SeverityColor(string(o.Finding.Severity)),
				console.ActionColor(string(o.Action)),
				changedLabel(o.TagChanged),
				changedLabel(o.LifecycleChanged),
				truncate(o.Error, 60),
			)
		}
		app.console.Println(table.Render())
	}

	title := "Tagging Summary"
	if report.DryRun {
		title += " (dry run)"
	}
	app.console.DisplayCounterBars(title, report.Summary.Counters())
}

func (app *CLIApp) exportReport(report entity.ProcessReport, args *types.CLIArgs) {
	if args.ReportName == "" {
		return
	}
	for _, reportType := range args.ReportType {
		var (
			path string
			err  error
		)
		switch strings.ToLower(strings.TrimSpace(reportType)) {
		case "csv":
			path, err = app.exportRepo.ExportReportToCSV(report, args.ReportName, args.Dir)
		case "json":
			path, err = app.exportRepo.ExportReportToJSON(report, args.ReportName, args.Dir)
		case "pdf":
			path, err = app.exportRepo.ExportReportToPDF(report, args.ReportName, args.Dir)
		default:
			app.console.LogWarning("Unsupported report type: %s", reportType)
			continue
		}
		if err != nil {
			app.console.LogError("Failed to export %s report: %v", reportType, err)
			continue
		}
		app.console.LogSuccess("%s report exported to %s", strings.ToUpper(reportType), path)
	}
}

func (app *CLIApp) newRegisterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Subscribe the tagging handler to object-created events of a results bucket",
		RunE:  app.runRegister,
	}
	cmd.Flags().StringP("bucket", "b", "", "Results bucket")
	cmd.Flags().StringP("function", "f", "", "Tagging handler function name or ARN")
	cmd.Flags().String("prefix", "", "Only notify for keys with this prefix")
	cmd.Flags().String("suffix", "", "Only notify for keys with this suffix")
	_ = cmd.MarkFlagRequired("bucket")
	_ = cmd.MarkFlagRequired("function")
	return cmd
}

func (app *CLIApp) runRegister(cmd *cobra.Command, _ []string) error {
	args, cfg, awsRepo, storage, err := app.prepare(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	accountID, err := awsRepo.GetAccountID(ctx)
	if err != nil {
		return err
	}
	functionARN, err := awsRepo.GetFunctionARN(ctx, args.Function)
	if err != nil {
		return err
	}
	if err := awsRepo.EnsureInvokePermission(ctx, functionARN, args.Bucket, accountID); err != nil {
		return err
	}

	registrar := usecase.NewRegistrarUseCase(storage, app.cliLogger(cfg))
	if current, err := storage.GetBucketNotification(ctx, args.Bucket); err == nil && !current.IsEmpty() {
		app.console.LogWarning("Replacing %d existing notification target(s) on s3://%s", len(current.Targets), args.Bucket)
	}

	physicalID, err := registrar.Register(ctx, args.Bucket, usecase.NewLambdaNotification(functionARN, args.Prefix, args.Suffix))
	if err != nil {
		return err
	}
	app.console.LogSuccess("Registered %s on s3://%s (%s)", functionARN, args.Bucket, physicalID)
	return nil
}

func (app *CLIApp) newUnregisterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unregister",
		Short: "Remove all event notifications from a results bucket",
		RunE:  app.runUnregister,
	}
	cmd.Flags().StringP("bucket", "b", "", "Results bucket")
	_ = cmd.MarkFlagRequired("bucket")
	return cmd
}

func (app *CLIApp) runUnregister(cmd *cobra.Command, _ []string) error {
	args, cfg, _, storage, err := app.prepare(cmd)
	if err != nil {
		return err
	}
	registrar := usecase.NewRegistrarUseCase(storage, app.cliLogger(cfg))
	if err := registrar.Unregister(cmd.Context(), args.Bucket); err != nil {
		return err
	}
	app.console.LogSuccess("Removed event notifications from s3://%s", args.Bucket)
	return nil
}

func (app *CLIApp) newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show event notifications and managed lifecycle rules of a bucket",
		RunE:  app.runStatus,
	}
	cmd.Flags().StringP("bucket", "b", "", "Bucket to inspect")
	_ = cmd.MarkFlagRequired("bucket")
	return cmd
}

func (app *CLIApp) runStatus(cmd *cobra.Command, _ []string) error {
	args, cfg, _, storage, err := app.prepare(cmd)
	if err != nil {
		return err
	}
	registrar := usecase.NewRegistrarUseCase(storage, app.cliLogger(cfg))

	status := app.console.Status(fmt.Sprintf("Reading configuration of s3://%s...", args.Bucket))
	bucketStatus, err := registrar.Status(cmd.Context(), args.Bucket, cfg.Tagger.LifecycleRulePrefix)
	status.Stop()
	if err != nil {
		return err
	}

	if bucketStatus.Notifications.IsEmpty() {
		app.console.LogInfo("No event notifications configured on s3://%s", args.Bucket)
	} else {
		table := app.console.CreateTable()
		table.AddColumn("ID")
		table.AddColumn("Kind")
		table.AddColumn("Target")
		table.AddColumn("Events")
		table.AddColumn("Filters")
		for _, t := range bucketStatus.Notifications.Targets {
			filters := make([]string, 0, len(t.Filters))
			for _, f := range t.Filters {
				filters = append(filters, f.Name+"="+f.Value)
			}
			table.AddRow(t.ID, t.Kind, t.Arn, strings.Join(t.Events, "\n"), strings.Join(filters, "\n"))
		}
		app.console.Println(table.Render())
		if bucketStatus.Notifications.EventBridge {
			app.console.LogInfo("EventBridge delivery is enabled")
		}
	}

	app.console.LogInfo("%d of %d lifecycle rules are managed by %s",
		len(bucketStatus.ManagedRules), bucketStatus.TotalRuleCount, cfg.Metrics.Service)
	if len(bucketStatus.ManagedRules) > 0 {
		table := app.console.CreateTable()
		table.AddColumn("Rule ID")
		table.AddColumn("Prefix")
		table.AddColumn("Status")
		table.AddColumn("Glacier After")
		table.AddColumn("Expire After")
		for _, r := range bucketStatus.ManagedRules {
			state := "Disabled"
			if r.Enabled {
				state = "Enabled"
			}
			table.AddRow(r.ID, r.Prefix, state,
				fmt.Sprintf("%d days", r.TransitionDays), fmt.Sprintf("%d days", r.ExpirationDays))
		}
		app.console.Println(table.Render())
	}
	return nil
}

func (app *CLIApp) newLogsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print recent log events of a handler function",
		RunE:  app.runLogs,
	}
	cmd.Flags().StringP("function", "f", "", "Handler function name or ARN")
	cmd.Flags().Duration("since", time.Hour, "How far back to read")
	cmd.Flags().String("filter", "", "CloudWatch Logs filter pattern")
	_ = cmd.MarkFlagRequired("function")
	return cmd
}

func (app *CLIApp) runLogs(cmd *cobra.Command, _ []string) error {
	args, _, awsRepo, _, err := app.prepare(cmd)
	if err != nil {
		return err
	}

	status := app.console.Status(fmt.Sprintf("Reading logs of %s...", args.Function))
	logEvents, err := awsRepo.GetFunctionLogs(cmd.Context(), args.Function, args.Since, args.Filter)
	status.Stop()
	if err != nil {
		return err
	}

	if len(logEvents) == 0 {
		app.console.LogInfo("No log events in the last %s", args.Since)
		return nil
	}
	for _, e := range logEvents {
		app.console.Printf("%s %s %s\n", e.Timestamp.Format(time.RFC3339), console.BrightCyan(e.Stream), strings.TrimRight(e.Message, "\n"))
	}
	return nil
}

func (app *CLIApp) cliLogger(cfg *types.Config) zerolog.Logger {
	return logger.NewWithWriter(types.LogConfig{Level: cfg.Log.Level, Format: "console"}, cfg.Metrics.Service, app.logOut)
}

func changedLabel(changed bool) string {
	if changed {
		return "updated"
	}
	return "-"
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
