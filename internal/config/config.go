package config

// Config holds app configuration
type Config struct {
	// InputFile is the archive to recover, taken from the positional argument
	InputFile string `mapstructure:"input"`

	// OutputDir is where recovered entries are written, mirroring
	// the archive's internal hierarchy
	OutputDir string `mapstructure:"output_dir"`

	// ChunkSize is how many bytes the data descriptor scan reads per step
	ChunkSize int `mapstructure:"chunk_size"`

	// OnDesync is "abort" or "scan-forward"
	// Decides what happens when a header position holds an unknown signature
	OnDesync string `mapstructure:"on_desync"`

	VerifyDescriptor bool `mapstructure:"verify_descriptor"`
	KeepGoing        bool `mapstructure:"keep_going"`
	SkipSizeCheck    bool `mapstructure:"skip_size_check"`
	CP437Names       bool `mapstructure:"cp437_names"`

	DryRun       bool   `mapstructure:"dry_run"`
	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}
