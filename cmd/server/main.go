package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"sdv-lab/backend/internal/api"
)

func main() {
	baseDir, err := os.Getwd()
	if err != nil {
		logrus.Fatalf("determine working directory: %v", err)
	}

	dataDir := filepath.Join(baseDir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		logrus.Fatalf("create data directory: %v", err)
	}

	cfg := api.Config{
		DBPath:                filepath.Join(dataDir, "sdv-lab.db"),
		EasyScenariosPath:     filepath.Join(baseDir, "internal", "scenario", "easy_scenarios.json"),
		AdvancedScenariosPath: filepath.Join(baseDir, "internal", "scenario", "advanced_scenarios.json"),
		AppCatalogPath:        filepath.Join(baseDir, "internal", "apps", "catalog.json"),
		AllowedOrigins: []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		},
	}

	if override := strings.TrimSpace(os.Getenv("SDV_LAB_DB_PATH")); override != "" {
		cfg.DBPath = override
	}
	if override := strings.TrimSpace(os.Getenv("SCENARIOS_EASY_PATH")); override != "" {
		cfg.EasyScenariosPath = override
	}
	if override := strings.TrimSpace(os.Getenv("SCENARIOS_ADVANCED_PATH")); override != "" {
		cfg.AdvancedScenariosPath = override
	}
	if override := strings.TrimSpace(os.Getenv("APP_CATALOG_PATH")); override != "" {
		cfg.AppCatalogPath = override
	}
	if origins := strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")); origins != "" {
		var allowed []string
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				allowed = append(allowed, trimmed)
			}
		}
		cfg.AllowedOrigins = allowed
	}

	server, err := api.NewServer(cfg)
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}

	router, err := server.Router()
	if err != nil {
		logrus.Fatalf("configure router: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	logrus.Infof("starting sdv-lab backend on :%s", port)
	if err := router.Run(":" + port); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
