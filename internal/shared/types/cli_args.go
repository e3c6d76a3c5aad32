package types

import "time"

// CLIArgs represents the command-line arguments.
type CLIArgs struct {
	ConfigFile string
	Profile    string
	Region     string

	TagKey      string
	Threshold   string
	GlacierDays int32
	ExpireDays  int32

	Bucket     string
	Keys       []string
	VersionID  string
	DryRun     bool
	ReportName string
	ReportType []string
	Dir        string

	Function string
	Prefix   string
	Suffix   string

	Since  time.Duration
	Filter string
}
