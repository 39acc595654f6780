// main.go - rgx CLI: a recursive, parallel pattern-search tool
//
// (c) 2024- Sudhi Herle <sudhi@herle.net>
//
// Licensing Terms: GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package main

import (
	"bufio"
	"fmt"
	"os"
	"path"
	"runtime"

	"github.com/opencoff/go-logger"
	flag "github.com/opencoff/pflag"
	"github.com/opencoff/shlex"
	"golang.org/x/term"

	"github.com/opencoff/rgx"
	"github.com/opencoff/rgx/search"
	"github.com/opencoff/rgx/types"
)

var Z = path.Base(os.Args[0])

func main() {
	var ignoreCase, quiet, noMessages, filesOnly, typeList, showStats, help bool
	var threads int
	var typeName, iglobFile, logfile string
	mmapThreshold := search.NewSizeValue()

	fs := flag.NewFlagSet(Z, flag.ExitOnError)

	fs.BoolVarP(&help, "help", "h", false, "Show help and exit [False]")
	fs.BoolVarP(&ignoreCase, "ignore-case", "i", false, "Match case-insensitively [False]")
	fs.IntVarP(&threads, "threads", "j", runtime.NumCPU(), "Use `N` worker threads")
	fs.BoolVarP(&filesOnly, "files", "", false, "List files that would be searched, don't search them [False]")
	fs.BoolVarP(&typeList, "type-list", "", false, "List the known file types and exit [False]")
	fs.BoolVarP(&quiet, "quiet", "q", false, "Stop after the first match [False]")
	fs.BoolVarP(&noMessages, "no-messages", "", false, "Suppress non-fatal diagnostic messages [False]")
	fs.StringVarP(&typeName, "type", "t", "", "Only search files of type `TYPE`")
	fs.StringVarP(&iglobFile, "iglob-file", "", "", "Read additional exclude globs from `FILE`")
	fs.BoolVarP(&showStats, "stats", "", false, "Print a search summary to stderr [False]")
	fs.StringVarP(&logfile, "log", "", "", "Write diagnostics to `FILE` instead of stderr")
	fs.VarP(mmapThreshold, "mmap-threshold", "", "Use a memory-mapped read above `SIZE` bytes [1M]")

	fs.SetOutput(os.Stdout)

	if err := fs.Parse(os.Args[1:]); err != nil {
		die("%s", err)
	}

	if help {
		usage(fs)
	}

	rest := fs.Args()
	if !typeList && len(rest) == 0 {
		die("Usage: %s [options] PATTERN [PATH...]", Z)
	}

	args := rgx.NewArgs()
	args.IgnoreCase = ignoreCase
	args.Threads = threads
	args.Files = filesOnly
	args.TypeList = typeList
	args.Quiet = quiet
	args.NoMessages = noMessages
	args.TypeFilter = typeName
	args.Stats = showStats
	args.MmapThreshold = int64(mmapThreshold.Value())
	args.Stdout = bufio.NewWriter(os.Stdout)
	args.StdoutFile = os.Stdout
	args.Color = colorCapable(os.Stdout)

	if !typeList {
		args.Pattern = rest[0]
		args.Paths = rest[1:]
		if len(args.Paths) == 0 {
			args.Paths = []string{"."}
		}
	}

	if len(iglobFile) > 0 {
		globs, err := readIglobFile(iglobFile)
		if err != nil {
			die("%s", err)
		}
		args.Excludes = append(args.Excludes, globs...)
	}

	log := openLogger(logfile, noMessages)
	defer log.Close()

	reg := types.DefaultRegistry()

	var matcher search.Matcher
	if !typeList {
		m, err := search.NewRegexMatcher(args.Pattern, args.IgnoreCase)
		if err != nil {
			die("bad pattern '%s': %s", args.Pattern, err)
		}
		matcher = m
	}

	facade := &search.Facade{
		Args:     args,
		Matcher:  matcher,
		Registry: reg,
		Log:      log,
	}

	result, err := facade.Run()

	if bw, ok := args.Stdout.(*bufio.Writer); ok {
		bw.Flush()
	}

	if err != nil && !noMessages {
		fmt.Fprintf(os.Stderr, "%s: %s\n", Z, err)
	}

	if showStats && result != nil {
		fmt.Fprintf(os.Stderr, "%s: %d files searched, %d files matched, %d lines matched\n",
			Z, result.Stats.PathsSearched, result.Stats.FilesMatched, result.Stats.LinesMatched)
	}

	exit := rgx.ExitNoMatch
	if result != nil {
		exit = result.Exit
	}
	if err != nil {
		exit = rgx.ExitNoMatch
	}
	os.Exit(int(exit))
}

// readIglobFile reads one shell-quoted glob expression per line and
// flattens them into a single exclude list, the way the teacher's
// own Split() helper uses shlex for quoted test-suite arguments.
func readIglobFile(fn string) ([]string, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		globs, err := shlex.Split(line)
		if err != nil {
			return nil, fmt.Errorf("iglob-file %s: %w", fn, err)
		}
		out = append(out, globs...)
	}
	return out, sc.Err()
}

func openLogger(logfile string, quiet bool) logger.Logger {
	dest := "STDERR"
	if len(logfile) > 0 {
		dest = logfile
	}
	prio := logger.LOG_WARNING
	if quiet {
		prio = logger.LOG_CRIT
	}
	log, err := logger.NewLogger(dest, prio, Z, logger.Ldate|logger.Ltime)
	if err != nil {
		die("logger: %s", err)
	}
	return log
}

// colorCapable reports whether w is a terminal that can sensibly
// receive ANSI color codes; used by the CLI to decide the printer's
// Color flag before a search ever begins.
func colorCapable(w *os.File) bool {
	return term.IsTerminal(int(w.Fd()))
}

func usage(fs *flag.FlagSet) {
	fmt.Printf(usageStr, Z, Z)
	fs.PrintDefaults()
	os.Exit(0)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(int(rgx.ExitNoMatch))
}

var usageStr = `%s - recursive, parallel pattern search.

Usage: %s [options] PATTERN [PATH...]

Options:
`
