// Command distill prints a book's table of contents, optionally with short
// extractive summaries of each chapter.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dgallion1/distill/internal/config"
	"github.com/dgallion1/distill/internal/distill"
	"github.com/dgallion1/distill/internal/logger"
	"github.com/dgallion1/distill/internal/parser"
	"github.com/dgallion1/distill/internal/pipeline"
	"github.com/dgallion1/distill/internal/report"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	verbose       bool
	summary       bool
	noInteractive bool
	sentences     int
	format        string
	fallback      string
	noColor       bool
}

func parseFlags(args []string, stderr io.Writer) (options, string, error) {
	var o options
	fs := flag.NewFlagSet("distill", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&o.verbose, "v", false, "Enable verbose output")
	fs.BoolVar(&o.verbose, "verbose", false, "Enable verbose output")
	fs.BoolVar(&o.summary, "s", false, "Include chapter summaries in the output")
	fs.BoolVar(&o.summary, "summary", false, "Include chapter summaries in the output")
	fs.BoolVar(&o.noInteractive, "no-interactive", false, "Disable permission prompts (allow all paths)")
	fs.IntVar(&o.sentences, "n", 0, "Sentences per summary (default from SUMMARY_SENTENCES, else 2)")
	fs.IntVar(&o.sentences, "sentences", 0, "Sentences per summary")
	fs.StringVar(&o.format, "format", "text", "Output format: text, json or markdown")
	fs.StringVar(&o.fallback, "fallback", "", "Summary fallback: lexical, claude or none (default from SUMMARY_FALLBACK)")
	fs.BoolVar(&o.noColor, "no-color", false, "Disable styled output")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "distill - extract the table of contents and chapter summaries from a book\n\n")
		fmt.Fprintf(stderr, "Usage:\n  distill [options] <book>\n\n")
		fmt.Fprintf(stderr, "Supported files: .epub .html .htm .xhtml .md .markdown .docx .pdf .txt\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return o, "", err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return o, "", errors.New("expected exactly one book file")
	}
	return o, fs.Arg(0), nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, path, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 1
	}

	format, err := report.ParseFormat(opts.format)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	cfg := config.Load()
	if opts.fallback != "" {
		cfg.SummaryFallback = strings.ToLower(opts.fallback)
	}
	if opts.sentences != 0 {
		cfg.SummarySentences = opts.sentences
	}
	if !opts.summary {
		cfg.SummaryFallback = config.FallbackNone
	}
	if err := cfg.Validate(config.ModeCLI); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := logger.New(logger.Config{Writer: stderr, Format: logger.FormatText, Level: level})

	if _, err := os.Stat(path); err != nil {
		abs, absErr := filepath.Abs(path)
		if absErr != nil {
			fmt.Fprintf(stderr, "Error: File '%s' does not exist or path is invalid.\n", path)
		} else {
			fmt.Fprintf(stderr, "Error: File '%s' does not exist.\n", abs)
		}
		return 1
	}
	if !parser.IsSupportedExtension(path) {
		fmt.Fprintf(stderr, "Error: File '%s' is not a supported book file.\n", path)
		return 1
	}

	allowed, err := checkPermission(path, !opts.noInteractive, stdin, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "Error resolving path: %v\n", err)
		return 1
	}
	if !allowed {
		fmt.Fprintln(stderr, "Access denied by user.")
		return 1
	}

	book, err := parser.LoadFile(path, parser.Options{PDFFallbackPdftotext: cfg.PDFFallbackPdftotext})
	if err != nil {
		fmt.Fprintf(stderr, "Error loading book file: %v\n", err)
		return 1
	}
	log.Debug("book loaded", "title", book.Title, "items", len(book.Items), "toc_entries", len(book.TOC))

	d := distill.New(book, nil, log)
	if opts.summary {
		sum, _, err := pipeline.NewSummarizer(cfg, log)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		if err := sum.Init(ctx); err != nil {
			fmt.Fprintf(stderr, "Warning: %v\n", err)
		}
		d = distill.New(book, sum, log)
	}

	chapters, err := d.Chapters(ctx, distill.Options{Summary: opts.summary, Sentences: cfg.SummarySentences})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, "\nOperation cancelled by user.")
			return 1
		}
		fmt.Fprintf(stderr, "Unexpected error: %v\n", err)
		return 1
	}

	rep := report.New(book, chapters, opts.summary)
	ropts := report.Options{Color: !opts.noColor && format == report.FormatText}
	if err := report.Write(stdout, rep, format, ropts); err != nil {
		fmt.Fprintf(stderr, "Unexpected error: %v\n", err)
		return 1
	}
	return 0
}

// checkPermission allows files under the working directory. Anything else
// needs a "y" answer on stdin unless prompting is disabled.
func checkPermission(path string, interactive bool, stdin io.Reader, stdout io.Writer) (bool, error) {
	target, err := canonical(path)
	if err != nil {
		return false, err
	}
	wd, err := os.Getwd()
	if err != nil {
		return false, err
	}
	cwd, err := canonical(wd)
	if err != nil {
		return false, err
	}

	if within(cwd, target) || !interactive {
		return true, nil
	}

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "⚠️  Security Notice:")
	fmt.Fprintln(stdout, "You are trying to access a file outside the current directory:")
	fmt.Fprintf(stdout, "  Current directory: %s\n", cwd)
	fmt.Fprintf(stdout, "  Target file: %s\n", target)
	if vt, vc := filepath.VolumeName(target), filepath.VolumeName(cwd); vt != vc {
		fmt.Fprintf(stdout, "⚠️  The file is on a different drive (%s vs %s)\n", vt, vc)
	}
	fmt.Fprintln(stdout)
	fmt.Fprint(stdout, "Do you want to continue? [y/N]: ")

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && line == "" {
		return false, nil
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

func within(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
