package api

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"sdv-lab/backend/internal/apps"
	"sdv-lab/backend/internal/missions"
	"sdv-lab/backend/internal/report"
	"sdv-lab/backend/internal/scenario"
	"sdv-lab/backend/internal/store"
	"sdv-lab/backend/internal/telemetry"
	"sdv-lab/backend/internal/util"
)

// Config defines server dependencies.
type Config struct {
	DBPath                string
	EasyScenariosPath     string
	AdvancedScenariosPath string
	AppCatalogPath        string
	AllowedOrigins        []string
	SilentDB              bool
}

// Server wires HTTP handlers with persistence, catalogues and notifications.
type Server struct {
	db             *store.Database
	catalog        *scenario.Catalog
	appManager     *apps.Manager
	missionTracker *missions.Tracker
	notifier       *LabNotifier
	allowedOrigins []string
	easyPath       string
	advancedPath   string
	appCatalogPath string
}

// NewServer constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("db path required")
	}
	db, err := store.Open(cfg.DBPath, cfg.SilentDB)
	if err != nil {
		return nil, err
	}

	easyPath := cfg.EasyScenariosPath
	if easyPath == "" {
		easyPath = filepath.Join("internal", "scenario", "easy_scenarios.json")
	}
	advancedPath := cfg.AdvancedScenariosPath
	if advancedPath == "" {
		advancedPath = filepath.Join("internal", "scenario", "advanced_scenarios.json")
	}
	appCatalogPath := cfg.AppCatalogPath
	if appCatalogPath == "" {
		appCatalogPath = filepath.Join("internal", "apps", "catalog.json")
	}

	catalog, err := scenario.NewCatalog(easyPath, advancedPath)
	if err != nil {
		return nil, fmt.Errorf("scenario catalogue: %w", err)
	}

	appManager, err := apps.NewManager(db, appCatalogPath)
	if err != nil {
		return nil, fmt.Errorf("app manager: %w", err)
	}

	server := &Server{
		db:             db,
		catalog:        catalog,
		appManager:     appManager,
		missionTracker: missions.NewTracker(db),
		notifier:       NewLabNotifier(),
		allowedOrigins: cfg.AllowedOrigins,
		easyPath:       easyPath,
		advancedPath:   advancedPath,
		appCatalogPath: appCatalogPath,
	}

	logrus.WithFields(logrus.Fields{
		"scenarios": catalog.Len(),
		"apps":      len(appManager.Catalog()),
		"missions":  len(missions.Catalogue()),
	}).Info("lab catalogues loaded")

	return server, nil
}

// Router configures gin routes.
func (s *Server) Router() (*gin.Engine, error) {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
		corsCfg.AllowCredentials = true
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.GET("/scenarios", s.handleListScenarios)
		api.GET("/scenarios/template", s.handleTemplate)
		api.GET("/scenarios/:id", s.handleGetScenario)

		api.POST("/reports", s.handleGenerateReport)
		api.GET("/reports", s.handleListReports)
		api.GET("/reports/export.json", s.handleExportReports)
		api.GET("/reports/stream", s.handleReportStream)
		api.GET("/reports/:id", s.handleGetReport)
		api.GET("/reports/:id/download", s.handleDownloadReport)

		api.GET("/apps/catalog", s.handleAppCatalog)
		api.GET("/apps", s.handleInstalledApps)
		api.POST("/apps/:id/install", s.handleInstallApp)
		api.POST("/apps/:id/update", s.handleUpdateApp)
		api.DELETE("/apps/:id", s.handleUninstallApp)

		api.GET("/missions", s.handleListMissions)
		api.POST("/missions/:id/complete", s.handleCompleteMission)
		api.GET("/badges", s.handleListBadges)

		api.POST("/telemetry", s.handleTelemetryUpload)
		api.GET("/telemetry", s.handleListTelemetry)
		api.GET("/telemetry/:id/summary", s.handleTelemetrySummary)
	}

	return r, nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	reports, err := s.db.CountReports()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"easy_scenarios_path":     s.easyPath,
		"advanced_scenarios_path": s.advancedPath,
		"app_catalog_path":        s.appCatalogPath,
		"scenarios":               s.catalog.Len(),
		"store_apps":              len(s.appManager.Catalog()),
		"missions":                len(missions.Catalogue()),
		"reports":                 reports,
	})
}

func (s *Server) handleListScenarios(c *gin.Context) {
	difficulty := strings.ToLower(strings.TrimSpace(c.Query("difficulty")))
	switch difficulty {
	case "", scenario.DifficultyEasy, scenario.DifficultyAdvanced:
	default:
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("unknown difficulty: %s", difficulty))
		return
	}

	items := s.catalog.List(difficulty)
	dtos := make([]ScenarioDTO, 0, len(items))
	for _, sc := range items {
		dtos = append(dtos, ScenarioFromModel(sc))
	}
	c.JSON(http.StatusOK, ScenariosResponse{Items: dtos, Total: len(dtos)})
}

func (s *Server) handleGetScenario(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	sc, ok := s.catalog.Get(id)
	if !ok {
		s.renderError(c, http.StatusNotFound, fmt.Errorf("scenario %s not found", id))
		return
	}
	c.JSON(http.StatusOK, ScenarioFromModel(sc))
}

func (s *Server) handleTemplate(c *gin.Context) {
	c.Header("Content-Disposition", "attachment; filename=scenario_template.md")
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.Template))
}

func (s *Server) handleGenerateReport(c *gin.Context) {
	var req GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.ScenarioID) == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("scenario_id is required"))
		return
	}

	sc, ok := s.catalog.Get(req.ScenarioID)
	if !ok {
		s.renderError(c, http.StatusNotFound, fmt.Errorf("scenario %s not found", req.ScenarioID))
		return
	}

	scenarioReport := report.ScenarioReport{
		Scenario:        sc,
		Metrics:         req.MetricStrings(),
		Observations:    req.Observations,
		Interpretation:  req.Interpretation,
		Recommendations: req.Recommendations,
	}

	timer := util.StartTimer()
	markdown := scenarioReport.Render()
	elapsed := timer.ElapsedMs()

	filename := sanitizeFilename(req.Filename)
	if filename == "" {
		filename = scenarioReport.Filename()
	}

	row := store.Report{
		ScenarioID:      sc.ID,
		Title:           sc.Title,
		Difficulty:      sc.Difficulty,
		Observations:    req.Observations,
		Interpretation:  req.Interpretation,
		Recommendations: req.Recommendations,
		Markdown:        markdown,
		Filename:        filename,
		RenderTimeMs:    elapsed,
	}
	row.SetMetrics(req.MetricStrings())

	if err := s.db.SaveReport(&row); err != nil {
		s.renderError(c, http.StatusInternalServerError, fmt.Errorf("save report: %w", err))
		return
	}

	dto := ReportFromModel(row, true)
	logrus.WithFields(logrus.Fields{
		"scenario": sc.ID,
		"report":   row.ID,
		"elapsed":  elapsed,
	}).Info("scenario report generated")

	s.notifier.Broadcast(LabEvent{Type: "report", Report: &dto, Message: "report generated"})
	c.JSON(http.StatusCreated, dto)
}

func (s *Server) handleListReports(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = 25
	}

	rows, total, err := s.db.ListReports(store.ReportQuery{
		ScenarioID: strings.TrimSpace(c.Query("scenario_id")),
		Difficulty: strings.ToLower(strings.TrimSpace(c.Query("difficulty"))),
		Offset:     page * pageSize,
		Limit:      pageSize,
	})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	dtos := make([]ReportDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, ReportFromModel(row, false))
	}
	c.JSON(http.StatusOK, ReportsResponse{Items: dtos, Total: total})
}

func (s *Server) handleGetReport(c *gin.Context) {
	row, ok := s.lookupReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ReportFromModel(*row, true))
}

func (s *Server) handleDownloadReport(c *gin.Context) {
	row, ok := s.lookupReport(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", row.Filename))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(row.Markdown))
}

func (s *Server) handleExportReports(c *gin.Context) {
	rows, _, err := s.db.ListReports(store.ReportQuery{Limit: -1})
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]ReportDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, ReportFromModel(row, true))
	}
	c.Header("Content-Disposition", "attachment; filename=sdv-lab-reports.json")
	c.JSON(http.StatusOK, dtos)
}

func (s *Server) lookupReport(c *gin.Context) (*store.Report, bool) {
	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return nil, false
	}
	row, err := s.db.GetReport(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("report %d not found", id))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return nil, false
	}
	return row, true
}

func (s *Server) handleReportStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn)
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("lab websocket connected")
	defer s.notifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("lab websocket closed")
			} else {
				logrus.WithError(err).Warn("lab websocket unexpected close")
			}
			break
		}
	}
}

func (s *Server) handleAppCatalog(c *gin.Context) {
	installed, err := s.appManager.Installed()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	versions := make(map[string]string, len(installed))
	for _, row := range installed {
		versions[row.AppID] = row.Version
	}

	catalog := s.appManager.Catalog()
	dtos := make([]CatalogAppDTO, 0, len(catalog))
	for _, app := range catalog {
		version, ok := versions[app.ID]
		dtos = append(dtos, CatalogAppDTO{App: app, Installed: ok, InstalledVersion: version})
	}
	c.JSON(http.StatusOK, gin.H{"items": dtos, "total": len(dtos)})
}

func (s *Server) handleInstalledApps(c *gin.Context) {
	rows, err := s.appManager.Installed()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]InstalledAppDTO, 0, len(rows))
	for _, row := range rows {
		dtos = append(dtos, InstalledAppFromModel(row))
	}
	c.JSON(http.StatusOK, gin.H{"items": dtos, "total": len(dtos)})
}

func (s *Server) handleInstallApp(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	row, err := s.appManager.Install(id)
	if err != nil {
		s.renderAppError(c, err)
		return
	}
	dto := InstalledAppFromModel(row)
	logrus.WithField("app", id).Info("app installed")
	s.notifier.Broadcast(LabEvent{Type: "app", App: &dto, Message: "installed"})
	c.JSON(http.StatusCreated, dto)
}

func (s *Server) handleUninstallApp(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.appManager.Uninstall(id); err != nil {
		s.renderAppError(c, err)
		return
	}
	logrus.WithField("app", id).Info("app uninstalled")
	s.notifier.Broadcast(LabEvent{Type: "app", Message: fmt.Sprintf("%s uninstalled", id)})
	c.JSON(http.StatusOK, gin.H{"status": "uninstalled"})
}

func (s *Server) handleUpdateApp(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	oldVersion, newVersion, err := s.appManager.BumpVersion(id)
	if err != nil {
		s.renderAppError(c, err)
		return
	}

	row, err := s.db.GetInstalledApp(id)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dto := InstalledAppFromModel(*row)
	logrus.WithFields(logrus.Fields{
		"app":  id,
		"from": oldVersion,
		"to":   newVersion,
	}).Info("app version bumped")
	s.notifier.Broadcast(LabEvent{Type: "app", App: &dto, Message: fmt.Sprintf("updated to %s", newVersion)})

	c.JSON(http.StatusOK, UpdateAppResponse{App: dto, OldVersion: oldVersion, NewVersion: newVersion})
}

func (s *Server) renderAppError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apps.ErrUnknownApp):
		s.renderError(c, http.StatusNotFound, err)
	case errors.Is(err, apps.ErrNotInstalled):
		s.renderError(c, http.StatusNotFound, err)
	case errors.Is(err, apps.ErrAlreadyInstalled):
		s.renderError(c, http.StatusConflict, err)
	default:
		s.renderError(c, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleListMissions(c *gin.Context) {
	statuses, err := s.missionTracker.List()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]MissionDTO, 0, len(statuses))
	for _, status := range statuses {
		dtos = append(dtos, MissionFromStatus(status))
	}
	c.JSON(http.StatusOK, gin.H{"items": dtos, "total": len(dtos)})
}

func (s *Server) handleCompleteMission(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	status, err := s.missionTracker.Complete(id)
	if err != nil {
		if errors.Is(err, missions.ErrUnknownMission) {
			s.renderError(c, http.StatusNotFound, err)
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}

	dto := MissionFromStatus(status)
	logrus.WithFields(logrus.Fields{
		"mission": id,
		"badge":   status.Badge,
	}).Info("mission completed")
	s.notifier.Broadcast(LabEvent{Type: "mission", Mission: &dto, Message: "mission completed"})
	c.JSON(http.StatusOK, dto)
}

func (s *Server) handleListBadges(c *gin.Context) {
	badges, err := s.missionTracker.Badges()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	dtos := make([]BadgeDTO, 0, len(badges))
	for _, badge := range badges {
		dtos = append(dtos, BadgeDTO{ID: badge.ID, Name: badge.Name, Unlocked: badge.Unlocked})
	}
	c.JSON(http.StatusOK, gin.H{"items": dtos, "total": len(dtos)})
}

func (s *Server) handleTelemetryUpload(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		s.renderError(c, http.StatusBadRequest, errors.New("name is required"))
		return
	}

	fileHeader, err := c.FormFile("telemetry")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			s.renderError(c, http.StatusBadRequest, errors.New("telemetry csv file is required"))
		} else {
			s.renderError(c, http.StatusBadRequest, err)
		}
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	defer src.Close()

	samples, err := telemetry.ParseCSV(src)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("parse telemetry: %w", err))
		return
	}
	summary := telemetry.Summarize(samples)

	batch := store.TelemetryBatch{
		Name:             name,
		OriginalFilename: fileHeader.Filename,
	}
	batch.SetSummary(summary)

	if err := s.db.SaveTelemetryBatch(&batch); err != nil {
		s.renderError(c, http.StatusInternalServerError, fmt.Errorf("save telemetry batch: %w", err))
		return
	}

	logrus.WithFields(logrus.Fields{
		"batch": batch.ID,
		"rows":  summary.Rows,
		"span":  summary.Span(),
	}).Info("telemetry batch ingested")

	dto, err := TelemetryBatchFromModel(batch, true)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusCreated, dto)
}

func (s *Server) handleListTelemetry(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	if page < 0 {
		page = 0
	}
	pageSize, _ := strconv.Atoi(c.Query("pageSize"))
	if pageSize <= 0 {
		pageSize = 25
	}

	rows, total, err := s.db.ListTelemetryBatches(page*pageSize, pageSize)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	dtos := make([]TelemetryBatchDTO, 0, len(rows))
	for _, row := range rows {
		dto, err := TelemetryBatchFromModel(row, false)
		if err != nil {
			s.renderError(c, http.StatusInternalServerError, err)
			return
		}
		dtos = append(dtos, dto)
	}
	c.JSON(http.StatusOK, TelemetryBatchesResponse{Items: dtos, Total: total})
}

func (s *Server) handleTelemetrySummary(c *gin.Context) {
	id, err := parseUintParam(c.Param("id"))
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	batch, err := s.db.GetTelemetryBatch(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("telemetry batch %d not found", id))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	dto, err := TelemetryBatchFromModel(*batch, true)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, dto)
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseUintParam(value string) (uint, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, errors.New("identifier is required")
	}
	parsed, err := strconv.ParseUint(trimmed, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid identifier: %w", err)
	}
	if parsed == 0 {
		return 0, errors.New("identifier must be greater than zero")
	}
	return uint(parsed), nil
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "." || name == ".." {
		return ""
	}
	if !strings.HasSuffix(strings.ToLower(name), ".md") {
		name += ".md"
	}
	return name
}
