// Command emotion-color derives a display color from the emotions in a piece
// of text. Without arguments it runs an interactive prompt; "serve" starts
// the web application.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/justestif/go-emotion-color/internal/classifier"
	"github.com/justestif/go-emotion-color/internal/clustering"
	"github.com/justestif/go-emotion-color/internal/color"
	"github.com/justestif/go-emotion-color/internal/config"
	"github.com/justestif/go-emotion-color/internal/db"
	"github.com/justestif/go-emotion-color/internal/emotion"
	"github.com/justestif/go-emotion-color/internal/history"
	"github.com/justestif/go-emotion-color/internal/prompt"
	"github.com/justestif/go-emotion-color/internal/web"
	webfs "github.com/justestif/go-emotion-color/web"
)

const usage = `Usage: emotion-color [command] [flags]

Commands:
  (none)     interactive prompt
  serve      start the web application
  train      train the classifier and save the model (-o model.json)
  batch      derive a color for every line on stdin
  moods      print mood groups from stored history
  prune      delete stored history older than -older-than
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, err := cfg.Log.SlogLevel()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cmd := ""
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "":
		return runPrompt(cfg)
	case "serve":
		return runServe(cfg, args)
	case "train":
		return runTrain(cfg, args)
	case "batch":
		return runBatch(cfg)
	case "moods":
		return runMoods(cfg)
	case "prune":
		return runPrune(cfg, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runPrompt(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	loop := prompt.New(svc, color.NewSwatch(os.Stdout))
	err = loop.Run(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		fmt.Println()
		fmt.Println(prompt.Goodbye)
		return nil
	}
	return err
}

func runServe(cfg config.Config, args []string) error {
	fset := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fset.String("addr", cfg.Server.Addr, "listen address")
	if err := fset.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	svc, cleanup, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	// Create sub-filesystems for templates and static files
	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:         *addr,
		TemplatesFS:  templates,
		StaticFS:     static,
		Service:      svc,
		HistoryLimit: cfg.History.Limit,
		Moods:        moodConfig(cfg),
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.Run()
}

func runTrain(cfg config.Config, args []string) error {
	fset := flag.NewFlagSet("train", flag.ContinueOnError)
	out := fset.String("o", "model.json", "output model path")
	data := fset.String("data", cfg.Classifier.DataPath, "training CSV with Text and Emotion columns")
	fitted := fset.Bool("fitted-priors", false, "use class frequencies as priors instead of the built-in weights")
	if err := fset.Parse(args); err != nil {
		return err
	}

	examples, err := classifier.LoadCSVFile(*data)
	if err != nil {
		return fmt.Errorf("loading training data: %w", err)
	}

	opts := []classifier.TrainOption{classifier.WithAlpha(cfg.Classifier.Alpha)}
	if *fitted {
		opts = append(opts, classifier.WithFittedPriors())
	}

	model, err := classifier.Train(examples, opts...)
	if err != nil {
		return fmt.Errorf("training classifier: %w", err)
	}

	if err := model.SaveFile(*out); err != nil {
		return err
	}

	slog.Info("model saved", "path", *out, "examples", len(examples), "vocabulary", len(model.Vocabulary))
	return nil
}

func runBatch(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, cleanup, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	texts, err := readLines(os.Stdin)
	if err != nil {
		return err
	}

	results, err := svc.DeriveBatch(ctx, texts)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			fmt.Printf("error\t%s\t%v\n", r.Text, r.Error)
			continue
		}
		fmt.Printf("%s\t%s\n", r.Color.Hex(), r.Text)
	}

	if failed > 0 {
		slog.Warn("some lines could not be colored", "failed", failed, "total", len(results))
	}
	return nil
}

func runMoods(cfg config.Config) error {
	ctx := context.Background()
	if cfg.Database.URL == "" {
		return errors.New("moods needs database.url (EMOCOLOR_DATABASE_URL)")
	}

	svc, cleanup, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := svc.MoodGroups(ctx, moodConfig(cfg))
	if err != nil {
		return err
	}

	fmt.Print(clustering.FormatGroupSummary(result.Groups, result.Outliers))
	return nil
}

func runPrune(cfg config.Config, args []string) error {
	fset := flag.NewFlagSet("prune", flag.ContinueOnError)
	olderThan := fset.Duration("older-than", 30*24*time.Hour, "delete derivations older than this")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return errors.New("prune needs database.url (EMOCOLOR_DATABASE_URL)")
	}

	ctx := context.Background()
	svc, cleanup, err := newService(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	n, err := svc.Prune(ctx, *olderThan)
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d derivations\n", n)
	return nil
}

// newService wires the classifier, deriver, and optional history store.
// The returned cleanup closes the database pool.
func newService(ctx context.Context, cfg config.Config) (*history.Service, func(), error) {
	model, err := loadModel(cfg)
	if err != nil {
		return nil, nil, err
	}

	palette := emotion.DefaultPalette()
	if cfg.Palette.File != "" {
		palette, err = emotion.LoadPaletteFile(cfg.Palette.File)
		if err != nil {
			return nil, nil, fmt.Errorf("loading palette: %w", err)
		}
	}
	deriver := emotion.NewDeriver(palette, emotion.WithTolerance(cfg.Deriver.Tolerance))

	opts := []history.Option{history.WithConcurrency(cfg.Batch.Concurrency)}
	cleanup := func() {}

	if cfg.Database.URL != "" {
		if err := db.Migrate(cfg.Database.URL); err != nil {
			return nil, nil, fmt.Errorf("migrating database: %w", err)
		}
		database, err := db.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		opts = append(opts, history.WithStore(database.Derivations()), history.WithPinger(database))
		cleanup = database.Close
		slog.Debug("history enabled")
	}

	return history.NewService(model, deriver, opts...), cleanup, nil
}

// loadModel reads a saved model when one is configured, otherwise trains one
// from the CSV dataset.
func loadModel(cfg config.Config) (*classifier.Model, error) {
	if cfg.Classifier.ModelPath != "" {
		model, err := classifier.LoadModelFile(cfg.Classifier.ModelPath)
		if err != nil {
			return nil, fmt.Errorf("loading model: %w", err)
		}
		return model, nil
	}

	start := time.Now()
	examples, err := classifier.LoadCSVFile(cfg.Classifier.DataPath)
	if err != nil {
		return nil, fmt.Errorf("loading training data: %w", err)
	}
	model, err := classifier.Train(examples, classifier.WithAlpha(cfg.Classifier.Alpha))
	if err != nil {
		return nil, fmt.Errorf("training classifier: %w", err)
	}
	slog.Debug("classifier trained", "examples", len(examples), "elapsed", time.Since(start))
	return model, nil
}

func moodConfig(cfg config.Config) clustering.MoodConfig {
	return clustering.MoodConfig{
		NumGroups:    cfg.Moods.Groups,
		MinGroupSize: cfg.Moods.MinSize,
	}
}

// readLines returns the non-blank lines of r.
func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return lines, nil
}
