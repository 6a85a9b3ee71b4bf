package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/zhouzirui/profscope/backend/internal/bootstrap"
	"github.com/zhouzirui/profscope/backend/internal/config"
	"github.com/zhouzirui/profscope/backend/internal/logging"
	"github.com/zhouzirui/profscope/backend/internal/service/ingest"
)

func main() {
	app := &cli.App{
		Name:      "ingest",
		Usage:     "Harvest professor review pages into the record store and vector index",
		ArgsUsage: "URL...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "file",
				Aliases: []string{"f"},
				Usage:   "Read additional URLs from `FILE`, one per line",
			},
			&cli.StringFlag{
				Name:  "harvester",
				Usage: "Override the harvesting strategy (static or headless)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the per-URL results as JSON",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if override := c.String("harvester"); override != "" {
		cfg.Harvest.Strategy = strings.ToLower(override)
	}

	urls, err := collectURLs(c.Args().Slice(), c.String("file"))
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("missing required argument: at least one URL")
	}

	app, err := bootstrap.New(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close record store")
		}
	}()

	items := app.Pipeline.IngestAll(c.Context, urls)
	if c.Bool("json") {
		return printJSON(c.App.Writer, items)
	}
	return printSummary(c.App.Writer, items)
}

// collectURLs merges positional URLs with those listed in file, skipping blank
// lines and "#" comments.
func collectURLs(args []string, file string) ([]string, error) {
	urls := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			urls = append(urls, a)
		}
	}
	if file == "" {
		return urls, nil
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open url file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read url file: %w", err)
	}
	return urls, nil
}

func printSummary(w io.Writer, items []ingest.BatchItem) error {
	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
			fmt.Fprintf(w, "FAIL  %s: %v\n", item.URL, item.Err)
			continue
		}
		names := "(no name)"
		if len(item.Result.ProfessorNames) > 0 {
			names = strings.Join(item.Result.ProfessorNames, ", ")
		}
		fmt.Fprintf(w, "OK    %s: %s, %d comments, %d chunks\n",
			item.URL, names, len(item.Result.AnalyzedComments), len(item.Result.Chunks))
	}
	fmt.Fprintf(w, "%d ingested, %d failed\n", len(items)-failed, failed)

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d urls failed", failed, len(items)), 1)
	}
	return nil
}

type jsonItem struct {
	URL    string         `json:"url"`
	Result *ingest.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

func printJSON(w io.Writer, items []ingest.BatchItem) error {
	out := make([]jsonItem, 0, len(items))
	failed := 0
	for _, item := range items {
		entry := jsonItem{URL: item.URL}
		if item.Err != nil {
			failed++
			entry.Error = item.Err.Error()
		} else {
			res := item.Result
			entry.Result = &res
		}
		out = append(out, entry)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d urls failed", failed, len(items)), 1)
	}
	return nil
}
