package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/cruciblehq/hoist/internal"
)

// Represents the root command for hoist.
var RootCmd struct {
	Quiet       bool   `short:"q" help:"Suppress informational output."`
	Verbose     bool   `short:"v" help:"Enable verbose output."`
	Debug       bool   `short:"d" help:"Enable debug output."`
	File        string `short:"f" help:"Pipeline file." default:"hoist.yaml" type:"path" placeholder:"PATH"`
	RunID       string `name:"run" help:"Run id shared by phase invocations." placeholder:"ID"`
	Provider    string `help:"Container provider (remote, local, containerd)." placeholder:"NAME"`
	Host        string `help:"Daemon host." placeholder:"HOST"`
	Port        int    `help:"Daemon port." placeholder:"PORT"`
	MetricsFile string `name:"metrics-file" help:"Write phase metrics to this file on exit." type:"path" placeholder:"PATH"`

	Run       RunCmd       `cmd:"" help:"Run every phase of the pipeline."`
	Start     StartCmd     `cmd:"" help:"Start the declared containers."`
	Build     BuildCmd     `cmd:"" help:"Build the declared images."`
	Commit    CommitCmd    `cmd:"" help:"Commit started containers into images."`
	Tag       TagCmd       `cmd:"" help:"Tag built images."`
	Push      PushCmd      `cmd:"" help:"Push queued images."`
	Stop      StopCmd      `cmd:"" help:"Stop started containers and remove built images."`
	Verify    VerifyCmd    `cmd:"" help:"Fail if any phase recorded errors."`
	Providers ProvidersCmd `cmd:"" help:"List the available providers."`
	Version   VersionCmd   `cmd:"" help:"Show version information."`
}

// Parses arguments, configures logging, and runs the selected subcommand.
func Execute() error {

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kongCtx := kong.Parse(&RootCmd,
		kong.Name(internal.Name),
		kong.Description("Container build pipeline.\n\nStarts containers, builds, commits, tags and pushes images against a container daemon."),
		kong.UsageOnError(),
		kong.Vars{
			"version": internal.VersionString(),
		},
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	configureLogger()

	return kongCtx.Run()
}

// Creates the process logger.
//
// Output is text on a terminal and JSON otherwise. Verbose loggers include
// the source position of each record.
func NewLogger(level slog.Leveler, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level, AddSource: verbose}
	if isatty(os.Stderr) {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// Returns the log level for the given toggles. Debug wins over quiet.
func LogLevel(debug, quiet bool) slog.Level {
	switch {
	case debug:
		return slog.LevelDebug
	case quiet:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Reconfigures the global logger based on CLI flags.
func configureLogger() {
	internal.SetDebug(RootCmd.Debug || internal.IsDebug())
	internal.SetQuiet(RootCmd.Quiet || internal.IsQuiet())
	internal.SetVerbose(RootCmd.Verbose || internal.IsVerbose())

	level := LogLevel(internal.IsDebug(), internal.IsQuiet())
	slog.SetDefault(NewLogger(level, internal.IsVerbose()))
}

// Whether the given file is an interactive terminal.
func isatty(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
