package helpers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hello-nrfcloud/backend-sub002/internal/config"
	"github.com/hello-nrfcloud/backend-sub002/internal/logging"
)

// Persistent flag names shared by all commands.
const (
	ConfigFlag   = "config"
	LogLevelFlag = "log-level"
)

// LoadConfig loads the configuration named by --config and applies
// --log-level.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(ConfigFlag)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString(LogLevelFlag); level != "" {
		cfg.Logging.Level = level
	}
	cfg.Logging.Output = cmd.ErrOrStderr()
	if !isTerminal(cfg.Logging.Output) {
		cfg.Logging.Pretty = false
	}
	return cfg, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Logger creates the command logger.
func Logger(cfg *config.Config, component string) zerolog.Logger {
	return logging.NewWithComponent(cfg.Logging, component)
}

// LoadAWSConfig resolves AWS credentials and region, honoring the
// configured profile and region.
func LoadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return awsCfg, nil
}
