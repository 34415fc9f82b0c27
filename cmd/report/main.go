package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"sdv-lab/backend/internal/report"
	"sdv-lab/backend/internal/scenario"
)

// answersFile is the offline submission format: the metric values a trainee
// collected plus the free-text sections.
type answersFile struct {
	Metrics         map[string]string `json:"metrics"`
	Observations    string            `json:"observations"`
	Interpretation  string            `json:"interpretation"`
	Recommendations string            `json:"recommendations"`
}

func main() {
	var (
		easyPath     = flag.String("easy", filepath.FromSlash("internal/scenario/easy_scenarios.json"), "Path to easy scenario catalogue JSON")
		advancedPath = flag.String("advanced", filepath.FromSlash("internal/scenario/advanced_scenarios.json"), "Path to advanced scenario catalogue JSON")
		scenarioID   = flag.String("scenario", "", "Scenario id to render (e.g. E1 or 4)")
		answersPath  = flag.String("answers", "", "Path to answers JSON (metrics + free-text sections)")
		outputPath   = flag.String("out", "", "Output file (defaults to the conventional report filename)")
		listOnly     = flag.Bool("list", false, "List catalogue scenarios and exit")
		templateOnly = flag.Bool("template", false, "Print the empty report template and exit")
	)
	flag.Parse()

	if *templateOnly {
		fmt.Print(report.Template)
		return
	}

	catalog, err := scenario.NewCatalog(*easyPath, *advancedPath)
	if err != nil {
		logrus.Fatalf("load scenario catalogues: %v", err)
	}

	if *listOnly {
		listScenarios(catalog)
		return
	}

	if strings.TrimSpace(*scenarioID) == "" {
		logrus.Fatalf("missing -scenario; run with -list to see available ids")
	}

	sc, ok := catalog.Get(*scenarioID)
	if !ok {
		logrus.Fatalf("unknown scenario %q; run with -list to see available ids", *scenarioID)
	}

	answers, err := loadAnswers(*answersPath)
	if err != nil {
		logrus.Fatalf("load answers: %v", err)
	}

	rep := report.ScenarioReport{
		Scenario:        sc,
		Metrics:         answers.Metrics,
		Observations:    answers.Observations,
		Interpretation:  answers.Interpretation,
		Recommendations: answers.Recommendations,
	}

	markdown := rep.Render()

	dest := *outputPath
	if dest == "" {
		dest = rep.Filename()
	}
	if err := os.WriteFile(dest, []byte(markdown), 0o644); err != nil {
		logrus.Fatalf("write report: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"scenario": sc.ID,
		"file":     dest,
		"bytes":    len(markdown),
	}).Info("report written")
}

func listScenarios(catalog *scenario.Catalog) {
	for _, difficulty := range []string{scenario.DifficultyEasy, scenario.DifficultyAdvanced} {
		fmt.Printf("%s:\n", difficulty)
		for _, sc := range catalog.List(difficulty) {
			fmt.Printf("  %-4s %s\n", sc.ID, sc.Title)
		}
	}
}

func loadAnswers(path string) (answersFile, error) {
	var answers answersFile
	if strings.TrimSpace(path) == "" {
		return answers, nil
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return answers, err
	}
	if err := json.Unmarshal(data, &answers); err != nil {
		return answers, fmt.Errorf("parse %s: %w", path, err)
	}
	return answers, nil
}
