// Command ndiff compares two text streams number-by-number: it treats
// runs of digits as values to be judged under tolerance instead of
// bytes to be matched exactly, driven by an optional rule file that
// assigns a tolerance axis (or a skip/goto/gonum action) to any row or
// column.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/lookbusy1344/ndiff/api"
	"github.com/lookbusy1344/ndiff/config"
	"github.com/lookbusy1344/ndiff/debugger"
	"github.com/lookbusy1344/ndiff/engine"
	"github.com/lookbusy1344/ndiff/ruleset"
)

// Version information, overridable at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// exit codes follow the teacher's own os.Exit conventions: 0 clean, 1
// reported differences, 2 fatal/usage error.
const (
	exitOK         = 0
	exitDiffers    = 1
	exitFatalUsage = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		lhsPath     = flag.String("lhs", "", "Left-hand input file (required unless positional args are given)")
		rhsPath     = flag.String("rhs", "", "Right-hand input file (required unless positional args are given)")
		rulesPath   = flag.String("rules", "", "Rule file governing tolerances, skips, and gotos")
		outLhsPath  = flag.String("out-lhs", "", "Echo lhs lines that compared equal to this file")
		outRhsPath  = flag.String("out-rhs", "", "Echo rhs lines that compared equal to this file")
		maxDiffs    = flag.Int("max-diffs", 0, "Stop warning after this many reported differences (0: use config default)")
		blank       = flag.Bool("blank", false, "Compress runs of whitespace differences instead of treating them as text diffs")
		check       = flag.Bool("check", false, "Cross-check every rule lookup against both GetInc and GetAt")
		quiet       = flag.Bool("quiet", false, "Suppress the difference report; only the exit code reports outcome")
		enableTrace = flag.Bool("trace", false, "Enable step-by-step comparison trace")
		traceFile   = flag.String("trace-file", "", "Trace output file (default: config's trace path)")
		debugMode   = flag.Bool("debug", false, "Start the interactive row/column debugger")
		tuiMode     = flag.Bool("tui", false, "Start the TUI (tcell/tview) debugger")
		apiServer   = flag.Bool("api-server", false, "Start an HTTP/WebSocket monitoring server for a running comparison")
		apiPort     = flag.Int("port", 8080, "Monitoring server port (used with -api-server)")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("ndiff %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		return exitOK
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return exitFatalUsage
	}

	if *apiServer {
		return runAPIServer(*apiPort)
	}

	lhs, rhs := resolveInputs(*lhsPath, *rhsPath)
	if lhs == "" || rhs == "" {
		printHelp()
		return exitFatalUsage
	}

	lhsFile, err := os.Open(lhs) // #nosec G304 -- user-specified comparison input
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open lhs file: %v\n", err)
		return exitFatalUsage
	}
	defer lhsFile.Close()

	rhsFile, err := os.Open(rhs) // #nosec G304 -- user-specified comparison input
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot open rhs file: %v\n", err)
		return exitFatalUsage
	}
	defer rhsFile.Close()

	table, err := loadRules(*rulesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rule file: %v\n", err)
		return exitFatalUsage
	}

	maxKept := *maxDiffs
	if maxKept == 0 {
		maxKept = cfg.Engine.MaxDiffs
	}

	opt := engine.Options{
		MaxKept:   maxKept,
		Blank:     *blank || cfg.Tolerance.BlankCompress,
		Check:     *check,
		Registers: cfg.Engine.RegisterCount,
	}

	st := engine.New(lhsFile, rhsFile, table, opt)

	if !*quiet {
		st.Warn = log.New(os.Stdout, "", 0)
	}
	if *enableTrace {
		tracePath := *traceFile
		if tracePath == "" {
			tracePath = cfg.Trace.OutputFile
		}
		traceWriter, err := os.Create(tracePath) // #nosec G304 -- user-specified trace output path
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating trace file: %v\n", err)
			return exitFatalUsage
		}
		defer traceWriter.Close()
		st.Trace = log.New(traceWriter, "", 0)
	}

	if *debugMode || *tuiMode {
		dbg := debugger.NewDebugger(st)
		if *tuiMode {
			if err := debugger.RunTUI(dbg); err != nil {
				fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
				return exitFatalUsage
			}
		} else {
			fmt.Println("ndiff debugger - type 'help' for commands")
			if err := debugger.RunCLI(dbg); err != nil {
				fmt.Fprintf(os.Stderr, "Debugger error: %v\n", err)
				return exitFatalUsage
			}
		}
		_, _, cnt, _ := st.Info()
		if cnt > 0 {
			return exitDiffers
		}
		return exitOK
	}

	var outLhs, outRhs *os.File
	if *outLhsPath != "" {
		outLhs, err = os.Create(*outLhsPath) // #nosec G304 -- user-specified output path
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating out-lhs file: %v\n", err)
			return exitFatalUsage
		}
		defer outLhs.Close()
	}
	if *outRhsPath != "" {
		outRhs, err = os.Create(*outRhsPath) // #nosec G304 -- user-specified output path
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating out-rhs file: %v\n", err)
			return exitFatalUsage
		}
		defer outRhs.Close()
	}

	if err := st.Loop(outLhs, outRhs); err != nil {
		fmt.Fprintf(os.Stderr, "Comparison error: %v\n", err)
		return exitFatalUsage
	}

	_, _, cnt, _ := st.Info()
	if cnt > 0 {
		return exitDiffers
	}
	return exitOK
}

// resolveInputs prefers -lhs/-rhs but falls back to the first two
// positional arguments, matching the teacher's "flag or bare arg" style
// for its single assembly-file argument.
func resolveInputs(lhsFlag, rhsFlag string) (string, string) {
	if lhsFlag != "" && rhsFlag != "" {
		return lhsFlag, rhsFlag
	}
	if flag.NArg() >= 2 {
		return flag.Arg(0), flag.Arg(1)
	}
	return lhsFlag, rhsFlag
}

// loadRules compiles path into a rule.Context, or falls back to the
// exact-match default when no rule file was given.
func loadRules(path string) (*ruleset.Table, error) {
	if path == "" {
		return ruleset.Default(), nil
	}
	text, err := os.ReadFile(path) // #nosec G304 -- user-specified rule file
	if err != nil {
		return nil, err
	}
	table, errs := ruleset.Parse(path, string(text))
	if errs.HasErrors() {
		return nil, errs
	}
	return table, nil
}

// runAPIServer starts the monitoring server and blocks until it
// receives an interrupt or its parent process disappears, mirroring
// the teacher's graceful-shutdown wiring around its own debug server.
func runAPIServer(port int) int {
	server := api.NewServerWithVersion(port, Version, Commit, Date)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownOnce sync.Once
	exitCode := exitOK
	performShutdown := func() {
		shutdownOnce.Do(func() {
			fmt.Println("\nShutting down monitoring server...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
				exitCode = exitFatalUsage
				return
			}
			fmt.Println("Monitoring server stopped")
		})
	}

	parentGone := make(chan struct{})
	var parentOnce sync.Once
	monitor := api.NewProcessMonitor(func() {
		parentOnce.Do(func() { close(parentGone) })
	})
	monitor.Start()

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "Monitoring server error: %v\n", err)
			exitCode = exitFatalUsage
		}
	}()

	select {
	case <-sigChan:
	case <-parentGone:
	}
	performShutdown()
	return exitCode
}

func printHelp() {
	fmt.Printf(`ndiff %s

Usage: ndiff [options] -lhs FILE -rhs FILE
       ndiff [options] FILE1 FILE2
       ndiff -api-server [-port N]

Options:
  -version           Show version information
  -lhs FILE          Left-hand input file
  -rhs FILE          Right-hand input file
  -rules FILE        Rule file (tolerances, skip/goto/gonum actions)
  -out-lhs FILE      Echo lhs lines that compared equal
  -out-rhs FILE      Echo rhs lines that compared equal
  -max-diffs N       Stop warning after N reported differences
  -blank             Compress whitespace-only differences
  -check             Cross-check every rule lookup (GetInc vs GetAt)
  -quiet             Suppress the difference report
  -trace             Enable step-by-step comparison trace
  -trace-file FILE   Trace output file
  -debug             Start the interactive row/column debugger
  -tui               Start the TUI debugger
  -api-server        Start a monitoring server (no comparison required)
  -port N            Monitoring server port (default: 8080)

Exit codes:
  0  inputs compared equal under every active rule
  1  at least one difference was reported
  2  usage error or fatal I/O failure

Examples:
  ndiff -lhs a.txt -rhs b.txt
  ndiff -rules tolerances.rules a.txt b.txt
  ndiff -debug -rules tolerances.rules a.txt b.txt
  ndiff -api-server -port 3000
`, Version)
}
