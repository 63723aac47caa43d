// Command korpus converts a directory of plain-text documents into corpus
// formats (JSON, matrix, graph, LDA-C, SVMlight, SQLite).
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cognicore/korpus/internal/log"
	"github.com/cognicore/korpus/pkg/korpus"
	"github.com/cognicore/korpus/pkg/korpus/config"
	"github.com/cognicore/korpus/pkg/korpus/export"
	"github.com/cognicore/korpus/pkg/korpus/graph"
	"github.com/cognicore/korpus/pkg/korpus/internalerr"
)

var formats = []string{"json", "matrix", "graph", "ldac", "svmlight", "sqlite"}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Errorf("korpus: %v", err)
		stop()
		os.Exit(1)
	}
}

// options holds the parsed command line.
type options struct {
	format     string
	onefile    bool
	variant    string
	classes    string
	configPath string
	envFile    string
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("korpus", flag.ContinueOnError)
	var (
		opts      options
		source    = fs.String("source", "", "Source directory with the documents")
		target    = fs.String("target", "", "Target directory for the artifacts (created if missing)")
		pattern   = fs.String("pattern", "", "Filename pattern (default \"{author}_{title}\")")
		glob      = fs.String("glob", "", "File filter matched against base names (default \"*.txt\")")
		mismatch  = fs.String("on-mismatch", "", "What to do with names that do not fit the pattern: fail or stem")
		stoplist  = fs.String("stoplist", "", "Stoplist YAML file (terms: [...])")
		lexicon   = fs.String("lexicon", "", "Synonym lexicon YAML file")
		dict      = fs.String("dict", "", "Multi-token dictionary (canonical|variant...|category)")
		minLength = fs.Int("min-length", 0, "Drop tokens shorter than this many characters")
		logLevel  = fs.String("log-level", "", "Log level: debug, info, warn, error")
	)
	fs.StringVar(&opts.format, "format", "", "Output format: "+strings.Join(formats, ", "))
	fs.BoolVar(&opts.onefile, "onefile", false, "json: write a single corpus.json")
	fs.StringVar(&opts.variant, "variant", string(graph.GEXF), "graph: output variant")
	fs.StringVar(&opts.classes, "classes", "", "svmlight: file with one class label per line")
	fs.StringVar(&opts.configPath, "config", "", "YAML run configuration")
	fs.StringVar(&opts.envFile, "env", ".env", "Environment file with KORPUS_* overrides")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// flag > env > YAML > defaults
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(opts.envFile); err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "source":
			cfg.Source = *source
		case "target":
			cfg.Target = *target
		case "pattern":
			cfg.Pattern = *pattern
		case "glob":
			cfg.Glob = *glob
		case "on-mismatch":
			cfg.OnMismatch = *mismatch
		case "stoplist":
			cfg.Stoplist = *stoplist
		case "lexicon":
			cfg.Lexicon = *lexicon
		case "dict":
			cfg.Dict = *dict
		case "min-length":
			cfg.MinLength = *minLength
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})
	log.SetLevel(cfg.LogLevel)

	if err := validateFormat(opts); err != nil {
		return err
	}

	var classes []string
	if opts.format == "svmlight" {
		var err error
		if classes, err = readClasses(opts.classes); err != nil {
			return err
		}
	}

	corpus, err := korpus.FromConfig(cfg)
	if err != nil {
		return err
	}

	res, err := runExport(ctx, corpus, opts, classes)
	if err != nil {
		return err
	}
	printResult(stdout, res)
	return nil
}

func validateFormat(opts options) error {
	switch opts.format {
	case "json", "matrix", "ldac", "sqlite":
		return nil
	case "graph":
		_, err := graph.ParseVariant(opts.variant)
		return err
	case "svmlight":
		if opts.classes == "" {
			return fmt.Errorf("%w: -classes is required for svmlight", internalerr.ErrInvalidInput)
		}
		return nil
	case "":
		return fmt.Errorf("%w: -format is required (%s)", internalerr.ErrInvalidInput, strings.Join(formats, ", "))
	default:
		return fmt.Errorf("%w: unknown format %q (allowed: %s)", internalerr.ErrInvalidInput, opts.format, strings.Join(formats, ", "))
	}
}

func runExport(ctx context.Context, c *korpus.Corpus, opts options, classes []string) (export.Result, error) {
	switch opts.format {
	case "json":
		return c.ToJSON(ctx, opts.onefile)
	case "matrix":
		return c.ToMatrix(ctx)
	case "graph":
		return c.ToGraph(ctx, opts.variant)
	case "ldac":
		return c.ToLDAC(ctx)
	case "svmlight":
		return c.ToSVMLight(ctx, classes)
	default:
		return c.ToSQLite(ctx)
	}
}

// readClasses reads one label per line; blank lines are skipped.
func readClasses(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open classes: %w", err)
	}
	defer f.Close()

	var classes []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			classes = append(classes, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read classes: %w", err)
	}
	return classes, nil
}

func printResult(w io.Writer, res export.Result) {
	fmt.Fprintf(w, "run %s: %s, %d documents, %d tokens\n", res.RunID, res.Format, res.Documents, res.Vocabulary)
	for _, a := range res.Artifacts {
		fmt.Fprintf(w, "  %s\n", a)
	}
}
