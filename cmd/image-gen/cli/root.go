package cli

import (
	"errors"
	"os"

	"github.com/deepnoodle-ai/wonton/cli"
	"github.com/joho/godotenv"

	imagegen "github.com/wolfmcnally/image-gen"
	"github.com/wolfmcnally/image-gen/log"
)

// Version is reported by --version and to MCP clients.
const Version = "0.1.0"

var (
	logLevel string
	app      *cli.App
)

// Execute builds the command tree, runs it, and exits the process with the
// code mapped from the error taxonomy.
func Execute() {
	// A .env in the working directory supplies credentials for local use.
	// Existing environment variables win.
	_ = godotenv.Load()

	app = cli.New("image-gen").
		Description("Generate or edit images using OpenAI GPT or Google Gemini APIs").
		Version(Version).
		GlobalFlags(
			cli.String("log-level", "").
				Default("warn").
				Help("Log level to use (none, debug, info, warn, error)"),
		)

	registerMainCommand(app)
	registerConfigCommand(app)
	registerMCPCommand(app)

	if err := app.Execute(); err != nil {
		if cli.IsHelpRequested(err) {
			os.Exit(0)
		}
		printError(err)
		os.Exit(exitCode(err))
	}
}

// parseGlobalFlags extracts global flag values from context
func parseGlobalFlags(ctx *cli.Context) {
	logLevel = ctx.String("log-level")
	if logLevel != "none" {
		log.SetDefaultLevel(log.LevelFromString(logLevel))
	}
}

// newLogger builds the logger selected by --log-level.
func newLogger() log.Logger {
	if logLevel == "none" {
		return log.NewNullLogger()
	}
	return log.New(log.LevelFromString(logLevel))
}

func exitCode(err error) int {
	var igErr *imagegen.Error
	if errors.As(err, &igErr) {
		return imagegen.ExitCode(err)
	}
	return cli.GetExitCode(err)
}
