// Package main provides the otwatch offline analysis CLI. It reads
// normalized events as NDJSON, runs anomaly detection and attack-chain
// analysis, and writes a JSON report to stdout.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"otwatch/internal/anomaly"
	"otwatch/internal/attackchain"
	"otwatch/internal/config"
	"otwatch/internal/logging"
	"otwatch/internal/mitre"
	"otwatch/internal/schema"
)

var version = "dev"

// Report is the combined output of one analysis run.
type Report struct {
	GeneratedAt time.Time               `json:"generated_at"`
	EventCount  int                     `json:"event_count"`
	Anomalies   []anomaly.Finding       `json:"anomalies"`
	Techniques  []string                `json:"techniques"`
	Sequences   []*attackchain.Sequence `json:"sequences"`
	Assessment  attackchain.Assessment  `json:"assessment"`
}

func main() {
	var (
		showVersion bool
		configPath  string
		catalogPath string
		methodsFlag string
		otFlag      bool
	)

	flag.BoolVar(&showVersion, "version", false, "Show version and exit")
	flag.StringVar(&configPath, "config", "", "Path to YAML config file")
	flag.StringVar(&catalogPath, "catalog", "", "Path to YAML attack pattern catalog (default: builtin)")
	flag.StringVar(&methodsFlag, "methods", "", "Comma-separated detection methods (default: all)")
	flag.BoolVar(&otFlag, "ot", true, "Treat the batch as an OT/SCADA environment")
	flag.Parse()

	if showVersion {
		fmt.Printf("otwatch %s\n", version)
		os.Exit(0)
	}

	if err := run(configPath, catalogPath, methodsFlag, otFlag, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, catalogPath, methodsFlag string, isOT bool, args []string) error {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	logging.Setup(cfg.Logging)

	if catalogPath == "" {
		catalogPath = cfg.Chain.CatalogPath
	}

	catalog := attackchain.BuiltinCatalog()
	if catalogPath != "" {
		loaded, err := attackchain.LoadCatalog(catalogPath)
		if err != nil {
			return err
		}
		catalog = loaded
		slog.Info("loaded pattern catalog", "path", catalogPath, "patterns", catalog.Len())
	}

	events, err := readEvents(args)
	if err != nil {
		return err
	}
	slog.Info("loaded events", "count", len(events))

	detector := anomaly.NewDetector(anomaly.Config{
		Contamination:    cfg.Detection.Contamination,
		RarityPercentile: cfg.Detection.RarityPercentile,
		SpikeWindow:      cfg.Detection.SpikeWindow,
		SpikeThreshold:   cfg.Detection.SpikeThreshold,
		ForestTrees:      cfg.Detection.ForestTrees,
		ForestSampleSize: cfg.Detection.ForestSampleSize,
		Seed:             cfg.Detection.Seed,
	})
	findings := detector.Detect(events, parseMethods(methodsFlag)...)

	mapper, err := mitre.NewMapper()
	if err != nil {
		return err
	}
	techniques := mapper.MapEvents(events)

	analyzer := attackchain.NewAnalyzer(catalog, attackchain.DefaultScoringPolicy())
	sequences, assessment := analyzer.Analyze(schema.SortByTime(events), techniques, isOT)

	report := Report{
		GeneratedAt: time.Now().UTC(),
		EventCount:  len(events),
		Anomalies:   findings,
		Techniques:  techniques,
		Sequences:   sequences,
		Assessment:  assessment,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// readEvents reads NDJSON events from the given file path, or stdin
// when no path is provided. Invalid events abort the run.
func readEvents(args []string) ([]*schema.Event, error) {
	var reader io.Reader = os.Stdin
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to open events file: %w", err)
		}
		defer f.Close()
		reader = f
	}

	validator := schema.NewValidator()
	var events []*schema.Event

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		var event schema.Event
		if err := json.Unmarshal([]byte(text), &event); err != nil {
			return nil, fmt.Errorf("line %d: failed to parse event: %w", line, err)
		}
		if err := validator.Validate(&event); err != nil {
			slog.Debug("rejecting event",
				"line", line,
				"message", logging.MaskMessage(event.Message),
				"error", err)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, &event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	return events, nil
}

func parseMethods(methodsFlag string) []anomaly.Method {
	if methodsFlag == "" {
		return nil
	}
	var methods []anomaly.Method
	for _, m := range strings.Split(methodsFlag, ",") {
		m = strings.TrimSpace(m)
		if m != "" {
			methods = append(methods, anomaly.Method(m))
		}
	}
	return methods
}
