package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/evalgrid/evalgrid/internal/app"
	"github.com/evalgrid/evalgrid/internal/cli"
	"github.com/evalgrid/evalgrid/internal/preflight"
	"github.com/evalgrid/evalgrid/internal/submit"
	"github.com/evalgrid/evalgrid/internal/yaml"
)

// main is the entrypoint for the evalgrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// The real main function handles errors and exit codes.
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// The app panics on critical config errors, so we recover here to provide
	// a clean exit message to the user.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	// Instantiate the concrete YAML loader to pass to the app.
	loader := yaml.NewLoader()
	evalgridApp := app.NewApp(outW, appConfig, loader)

	ctx := context.Background()
	services, err := buildServices(ctx, appConfig)
	if err != nil {
		return err
	}

	return evalgridApp.Run(ctx, services)
}

// buildServices constructs the platform clients from the ambient credential
// chain. A dry run never talks to the platform, so it gets empty services and
// no credentials are required.
func buildServices(ctx context.Context, appConfig *app.Config) (app.Services, error) {
	if appConfig.DryRun {
		return app.Services{}, nil
	}

	var optFns []func(*awsconfig.LoadOptions) error
	if appConfig.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(appConfig.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return app.Services{}, fmt.Errorf("failed to load platform credentials: %w", err)
	}

	return app.Services{
		Pipelines: submit.NewClient(sagemaker.NewFromConfig(awsCfg)),
		Checks: preflight.NewChecker(
			s3.NewFromConfig(awsCfg),
			sts.NewFromConfig(awsCfg),
			awsCfg.Region,
		),
	}, nil
}
