// Package config holds the CLI's runtime configuration, populated by
// viper from flags, environment variables, and an optional config file.
package config

// Config holds app configuration.
type Config struct {
	// ArchivePaths are the .lzh/.lha files to operate on.
	ArchivePaths []string `mapstructure:"archives"`

	// OutputDir is where extracted members are written. Defaults to the
	// current directory.
	OutputDir string `mapstructure:"output_dir"`

	// Overwrite allows extraction to replace existing files; otherwise
	// extraction stops at the first name collision.
	Overwrite bool `mapstructure:"overwrite"`

	// SkipUnsupported continues past members whose compression method
	// has no decoder in this build instead of failing the whole run.
	SkipUnsupported bool `mapstructure:"skip_unsupported"`

	// DryRun walks and verifies the archive without writing any output.
	DryRun bool `mapstructure:"dry_run"`

	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}
