// pattern: Imperative Shell
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	flag "github.com/spf13/pflag"

	"gitsubstatus/internal/cli"
	"gitsubstatus/internal/config"
	"gitsubstatus/internal/discovery"
	"gitsubstatus/internal/format"
	"gitsubstatus/internal/logging"
	"gitsubstatus/internal/pager"
	"gitsubstatus/internal/process"
	"gitsubstatus/internal/status"
	"gitsubstatus/internal/update"
)

const appName = "git-substatus"

// version is set at release time with -ldflags "-X main.version=<release>".
var version = "0.1"

const (
	exitOK          = 0
	exitError       = 1
	exitUsage       = 2
	exitInterrupted = 130
)

type flags struct {
	dir        string
	listAll    bool
	listOthers bool
	reverse    bool
	verbose    bool
	update     bool
	force      bool
	version    bool
	configDir  string
	noPager    bool
	color      string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code. ctx is
// cancelled on interrupt.
func run(ctx context.Context, args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var f flags
	fs.StringVarP(&f.dir, "dir", "d", ".", "directory whose subdirectories are scanned")
	fs.BoolVarP(&f.listAll, "list-all", "a", false, "list all subdirectories, with or without a repository")
	fs.BoolVarP(&f.listOthers, "list-others", "n", false, "list only subdirectories without a repository")
	fs.BoolVarP(&f.reverse, "reverse-sort", "R", false, "sort names in reverse order")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "print debug logs to stderr")
	fs.BoolVarP(&f.update, "update", "u", false, "update this executable to the latest release")
	fs.BoolVarP(&f.force, "force", "f", false, "with --update, install even when not newer")
	fs.BoolVarP(&f.version, "version", "V", false, "print the version and exit")
	fs.StringVarP(&f.configDir, "config-dir", "c", "", "config directory (default: ~/.config/git-substatus)")
	fs.BoolVar(&f.noPager, "no-pager", false, "write directly to stdout")
	fs.StringVar(&f.color, "color", string(format.ColorAuto), "colorize output: auto, always or never")

	fs.Usage = func() {
		cli.PrintHelp(stderr, appName, version)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fs.Usage()
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unexpected argument %q\n", fs.Arg(0))
		fs.Usage()
		return exitUsage
	}

	if f.version {
		fmt.Fprintln(stdout, cli.VersionString(appName, version))
		return exitOK
	}

	mode, err := cli.ModeFromFlags(f.listAll, f.listOthers)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	colorMode, ok := format.ParseColorMode(f.color)
	if !ok {
		fmt.Fprintf(stderr, "Error: invalid --color value %q\n", f.color)
		return exitUsage
	}

	cfg, err := loadConfig(f.configDir)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: failed to load config: %v\n", err)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	level := cfg.LogLevel
	if f.verbose {
		level = "debug"
	}
	logManager, err := logging.NewManager(logging.Config{
		Console:  stderr,
		Level:    level,
		FilePath: cfg.ResolvePath(cfg.LogFile),
	})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logging: %v\n", err)
		return exitError
	}
	defer func() { _ = logManager.Close() }()

	appLogger := logManager.For("app")
	appLogger.Debug("starting", "version", version, "args", fmt.Sprintf("%v", args))

	code := exitOK
	func() {
		defer func() {
			if r := recover(); r != nil {
				appLogger.Error("unexpected failure", "panic", fmt.Sprintf("%v", r), "stack", string(debug.Stack()))
				code = exitError
			}
		}()

		if f.update {
			code = runUpdate(ctx, &cfg, f.force, stdout, stderr, logManager)
			return
		}
		code = runScan(ctx, &cfg, mode, f, colorMode, stdout, stderr, logManager)
	}()
	return code
}

// loadConfig loads the configuration from the specified directory or default location.
func loadConfig(configDir string) (config.Config, error) {
	if configDir != "" {
		return config.LoadFromDir(configDir)
	}
	return config.Load()
}

func runScan(ctx context.Context, cfg *config.Config, mode cli.Mode, f flags, colorMode format.ColorMode, stdout, stderr *os.File, lm logging.LoggerProvider) int {
	runner := process.NewRunner(lm.For("process"))
	scanner := discovery.NewScanner(status.NewGitProbe(runner, lm.For("status")), cfg.Jobs, lm.For("scan"))

	isTerminal := format.IsTerminal(stdout)
	_, noColor := os.LookupEnv("NO_COLOR")
	formatter := format.Formatter{
		Palette: format.NewPalette(colorMode.Enabled(isTerminal, noColor), cfg.Theme),
		Width:   cfg.NameWidth,
	}

	pagerBinary := ""
	if !f.noPager && isTerminal {
		pagerBinary = cfg.DetectedPager()
	}
	display := pager.New(pagerBinary, cfg.PagerArgs, stdout, stderr, runner, lm.For("pager"))

	app := cli.NewApp(scanner, formatter, display, lm.For("app"))
	err := app.Run(ctx, cli.Options{Dir: f.dir, Mode: mode, Reverse: f.reverse})
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	default:
		lm.For("app").Error("listing failed", "error", err)
		return exitError
	}
}

func runUpdate(ctx context.Context, cfg *config.Config, force bool, stdout, stderr *os.File, lm logging.LoggerProvider) int {
	logger := lm.For("update")

	exe, err := executablePath()
	if err != nil {
		logger.Error("cannot locate executable", "error", err)
		return exitError
	}

	u := update.New(cfg.UpdateURL, version, exe, logger)
	u.VersionURL = cfg.VersionURL
	if format.IsTerminal(stderr) {
		u.Progress = stderr
	}

	result, remote, err := u.Run(ctx, force)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return exitInterrupted
		}
		fmt.Fprintf(stderr, "Update failed: %v\n", err)
		return exitError
	}

	printUpdateResult(stdout, result, remote)
	return exitOK
}

func printUpdateResult(w io.Writer, result update.Result, remote update.Version) {
	switch result {
	case update.ResultUpToDate:
		fmt.Fprintf(w, "%s is already the latest version (%s).\n", appName, remote)
	case update.ResultNewerLocal:
		fmt.Fprintf(w, "Local version %s is newer than the released %s, skipping update.\n", version, remote)
	case update.ResultUpdated:
		fmt.Fprintf(w, "Updated %s to %s.\n", appName, remote)
	}
}

func executablePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(exe)
}
