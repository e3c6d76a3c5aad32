package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
	"github.com/diillson/aws-macie-tagger-go/internal/domain/repository"
	"github.com/diillson/aws-macie-tagger-go/internal/shared/types"
	"github.com/diillson/aws-macie-tagger-go/pkg/version"
)

// AWSFactory cria os repositórios AWS para o profile e a região escolhidos.
type AWSFactory func(ctx context.Context, profile, region string) (repository.AWSRepository, repository.StorageRepository, error)

// CLIApp represents the command-line interface application.
type CLIApp struct {
	rootCmd    *cobra.Command
	version    string
	configRepo repository.ConfigRepository
	exportRepo repository.ExportRepository
	console    types.ConsoleInterface
	awsFactory AWSFactory
	logOut     io.Writer
}

// NewCLIApp cria uma nova aplicação CLI.
func NewCLIApp(
	versionStr string,
	configRepo repository.ConfigRepository,
	exportRepo repository.ExportRepository,
	console types.ConsoleInterface,
	awsFactory AWSFactory,
) *CLIApp {
	app := &CLIApp{
		version:    versionStr,
		configRepo: configRepo,
		exportRepo: exportRepo,
		console:    console,
		awsFactory: awsFactory,
		logOut:     os.Stderr,
	}

	// Obtem a versão formatada
	formattedVersion := version.FormatVersion()

	rootCmd := &cobra.Command{
		Use:           "macie-tagger",
		Short:         "Tag S3 objects flagged by Amazon Macie with their finding severity",
		Version:       formattedVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
				displayWelcomeBanner(app.version)
				go version.CheckLatestVersion(app.version)
			}
		},
	}

	rootCmd.SetVersionTemplate(`{{printf "macie-tagger version: %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringP("config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	rootCmd.PersistentFlags().StringP("profile", "p", "", "AWS profile to use (default: environment credentials)")
	rootCmd.PersistentFlags().StringP("region", "r", "", "AWS region (default: profile region)")
	rootCmd.PersistentFlags().String("tag-key", "", "Tag key written on flagged objects (overrides TAG_KEY_NAME)")
	rootCmd.PersistentFlags().String("threshold", "", "Minimum severity to tag: 1-3 or Low, Medium, High (overrides SCORE_THRESHOLD)")
	rootCmd.PersistentFlags().Int32("glacier-days", 0, "Days before noncurrent versions move to Glacier (overrides GLACIER_TRANSITION_DAYS)")
	rootCmd.PersistentFlags().Int32("expire-days", 0, "Days before noncurrent versions expire (overrides EXPIRE_OBJECTS_DAYS)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Do not display the welcome banner")

	rootCmd.AddCommand(
		app.newProcessCommand(),
		app.newRegisterCommand(),
		app.newUnregisterCommand(),
		app.newStatusCommand(),
		app.newLogsCommand(),
	)

	app.rootCmd = rootCmd
	return app
}

// Execute runs the CLI application.
func (app *CLIApp) Execute() error {
	return app.rootCmd.Execute()
}

// ExecuteContext runs the CLI application with ctx.
func (app *CLIApp) ExecuteContext(ctx context.Context) error {
	return app.rootCmd.ExecuteContext(ctx)
}

// parseArgs parses command-line arguments into a CLIArgs struct. Flags that a
// command does not define keep their zero value.
func (app *CLIApp) parseArgs(cmd *cobra.Command) (*types.CLIArgs, error) {
	flags := cmd.Flags()
	configFile, _ := flags.GetString("config-file")
	profile, _ := flags.GetString("profile")
	region, _ := flags.GetString("region")
	tagKey, _ := flags.GetString("tag-key")
	threshold, _ := flags.GetString("threshold")
	glacierDays, _ := flags.GetInt32("glacier-days")
	expireDays, _ := flags.GetInt32("expire-days")
	bucket, _ := flags.GetString("bucket")
	keys, _ := flags.GetStringSlice("key")
	versionID, _ := flags.GetString("version-id")
	dryRun, _ := flags.GetBool("dry-run")
	reportName, _ := flags.GetString("report-name")
	reportType, _ := flags.GetStringSlice("report-type")
	dir, _ := flags.GetString("dir")
	function, _ := flags.GetString("function")
	prefix, _ := flags.GetString("prefix")
	suffix, _ := flags.GetString("suffix")
	since, _ := flags.GetDuration("since")
	filter, _ := flags.GetString("filter")

	// Set default directory to current working directory if not specified
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = cwd
	} else {
		// Convert to absolute path
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return nil, err
		}
		dir = absDir
	}

	args := &types.CLIArgs{
		ConfigFile:  configFile,
		Profile:     profile,
		Region:      region,
		TagKey:      tagKey,
		Threshold:   threshold,
		GlacierDays: glacierDays,
		ExpireDays:  expireDays,
		Bucket:      bucket,
		Keys:        keys,
		VersionID:   versionID,
		DryRun:      dryRun,
		ReportName:  reportName,
		ReportType:  reportType,
		Dir:         dir,
		Function:    function,
		Prefix:      prefix,
		Suffix:      suffix,
		Since:       since,
		Filter:      filter,
	}

	return args, nil
}

// loadConfig aplica, em ordem, variáveis de ambiente, arquivo e flags.
func (app *CLIApp) loadConfig(args *types.CLIArgs) (*types.Config, error) {
	cfg, err := app.configRepo.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("error loading environment configuration: %w", err)
	}

	if args.ConfigFile != "" {
		cfg, err = app.configRepo.LoadConfigFile(args.ConfigFile, cfg)
		if err != nil {
			return nil, err
		}
	}

	if args.TagKey != "" {
		cfg.Tagger.TagKeyName = args.TagKey
	}
	if args.Threshold != "" {
		threshold, err := entity.ParseThreshold(args.Threshold)
		if err != nil {
			return nil, err
		}
		cfg.Tagger.ScoreThreshold = threshold
	}
	if args.GlacierDays > 0 {
		cfg.Tagger.GlacierTransitionDays = args.GlacierDays
	}
	if args.ExpireDays > 0 {
		cfg.Tagger.ExpireObjectsDays = args.ExpireDays
	}

	if err := app.configRepo.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// prepare lê flags e configuração e cria os repositórios AWS.
func (app *CLIApp) prepare(cmd *cobra.Command) (*types.CLIArgs, *types.Config, repository.AWSRepository, repository.StorageRepository, error) {
	args, err := app.parseArgs(cmd)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	cfg, err := app.loadConfig(args)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	awsRepo, storage, err := app.awsFactory(cmd.Context(), args.Profile, args.Region)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("error initializing AWS clients: %w", err)
	}
	return args, cfg, awsRepo, storage, nil
}
