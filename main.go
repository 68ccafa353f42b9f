// Command plankton-eval scores a pretrained image+feature classifier
// against a labeled flow-imaging dataset and reports accuracy metrics.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"plankton-eval/internal/evaluate"
	"plankton-eval/internal/model"
	"plankton-eval/internal/preprocess"
	"plankton-eval/internal/store"
)

const appVersion = "0.1.0"

func main() {
	dataDir := flag.String("data", "", "Dataset directory containing the CSV exports and images")
	csvGlob := flag.String("csv", "*.csv", "Glob for CSV files, relative to the data directory")
	configPath := flag.String("config", "", "Path to the model configuration YAML")
	modelPath := flag.String("model", "", "Path to the ONNX model file")
	ortLib := flag.String("ort-lib", "", "Path to the onnxruntime shared library (optional)")
	batchSize := flag.Int("batch-size", 32, "Inference batch size")
	minExamples := flag.Int("min-examples", 0, "Drop label groups with fewer rows than this")
	concurrency := flag.Int("concurrency", 0, "Max in-flight image preprocessing (0 = number of CPUs)")
	normalize := flag.Bool("normalize-confusion", false, "Row-normalize the confusion matrix")
	resultsDB := flag.String("results-db", "", "SQLite file to append run results to (optional)")
	jsonOut := flag.String("out", "", "Write the full report as JSON to this file (default stdout)")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	log.Infof("plankton-eval v%s", appVersion)

	if *dataDir == "" || *configPath == "" || *modelPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: plankton-eval -data <dir> -config <model.yaml> -model <model.onnx> [options]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	csvPaths, err := filepath.Glob(filepath.Join(*dataDir, *csvGlob))
	if err != nil || len(csvPaths) == 0 {
		log.Fatalf("no CSV files match %s in %s", *csvGlob, *dataDir)
	}
	log.Infof("found %d CSV files: %s", len(csvPaths), strings.Join(baseNames(csvPaths), ", "))

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load model config: %v", err)
	}

	predictor, err := model.NewONNXPredictor(cfg, *modelPath, *ortLib)
	if err != nil {
		log.Fatalf("load model: %v", err)
	}
	defer predictor.Close()

	processor, err := preprocess.New(cfg.InputShape.Height, cfg.InputShape.Width, cfg.InputShape.Channels)
	if err != nil {
		log.Fatalf("configure preprocessing: %v", err)
	}

	pipeline := evaluate.New(cfg, predictor, processor, evaluate.Options{
		DataDir:            *dataDir,
		CSVPaths:           csvPaths,
		BatchSize:          *batchSize,
		MinExamples:        *minExamples,
		Concurrency:        *concurrency,
		NormalizeConfusion: *normalize,
	})

	report, err := pipeline.Run(context.Background())
	if err != nil {
		log.Fatalf("evaluation failed: %v", err)
	}

	if *resultsDB != "" {
		if err := saveResults(*resultsDB, report); err != nil {
			log.Fatalf("save results: %v", err)
		}
		log.Infof("results appended to %s", *resultsDB)
	}

	if err := writeReport(report, *jsonOut); err != nil {
		log.Fatalf("write report: %v", err)
	}
	printSummary(report)
}

func baseNames(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Base(p)
	}
	return out
}

func saveResults(path string, report *evaluate.Report) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := store.New(db)
	if err != nil {
		return err
	}
	return s.Save(report)
}

func writeReport(report *evaluate.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func printSummary(report *evaluate.Report) {
	fmt.Fprintf(os.Stderr, "\nRun %s: %d examples (%s style)\n", report.RunID, report.Examples, report.ImageStyle)
	fmt.Fprintf(os.Stderr, "Accuracy: %.4f\n\n", report.Accuracy)
	fmt.Fprintf(os.Stderr, "%-24s %9s %9s %9s %9s\n", "class", "precision", "recall", "f1", "support")
	for _, cm := range report.PerClass {
		fmt.Fprintf(os.Stderr, "%-24s %9.3f %9.3f %9.3f %9d\n", cm.Label, cm.Precision, cm.Recall, cm.F1, cm.Support)
	}
}
