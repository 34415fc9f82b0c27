package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// Database wraps the GORM DB handle and exposes repository helpers.
type Database struct {
	gorm *gorm.DB
	mu   sync.Mutex
}

// Open initializes the SQLite-backed database at the provided path.
func Open(path string, silent bool) (*Database, error) {
	cfg := &gorm.Config{}
	if silent {
		cfg.Logger = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path), cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&Report{}, &InstalledApp{}, &MissionProgress{}, &TelemetryBatch{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		logrus.WithError(err).Warn("enable WAL mode")
	}
	if err := db.Exec("PRAGMA synchronous=NORMAL").Error; err != nil {
		logrus.WithError(err).Warn("set synchronous pragma")
	}
	return &Database{gorm: db}, nil
}

// GORM exposes the raw gorm.DB handle.
func (d *Database) GORM() *gorm.DB {
	return d.gorm
}

// Close closes the underlying database connection.
func (d *Database) Close() error {
	if d == nil {
		return nil
	}
	sqlDB, err := d.gorm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveReport persists a freshly rendered report.
func (d *Database) SaveReport(report *Report) error {
	if report == nil {
		return errors.New("report is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Create(report).Error
}

// GetReport fetches a report by primary key.
func (d *Database) GetReport(id uint) (*Report, error) {
	var report Report
	if err := d.gorm.First(&report, id).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

// ReportQuery filters report listings.
type ReportQuery struct {
	ScenarioID string
	Difficulty string
	Offset     int
	Limit      int
}

// ListReports returns reports newest first plus the matching total.
func (d *Database) ListReports(q ReportQuery) ([]Report, int64, error) {
	query := d.gorm.Model(&Report{})
	if q.ScenarioID != "" {
		query = query.Where("scenario_id = ?", q.ScenarioID)
	}
	if q.Difficulty != "" {
		query = query.Where("difficulty = ?", q.Difficulty)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC, id DESC")
	if q.Limit > 0 {
		query = query.Offset(q.Offset).Limit(q.Limit)
	}
	var rows []Report
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountReports returns the persisted report count.
func (d *Database) CountReports() (int64, error) {
	var count int64
	if err := d.gorm.Model(&Report{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListInstalledApps returns installed apps ordered by install time.
func (d *Database) ListInstalledApps() ([]InstalledApp, error) {
	var rows []InstalledApp
	if err := d.gorm.Order("created_at ASC, app_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetInstalledApp fetches one installed app by id.
func (d *Database) GetInstalledApp(appID string) (*InstalledApp, error) {
	var row InstalledApp
	if err := d.gorm.First(&row, "app_id = ?", appID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// SaveInstalledApp inserts or updates an installed app row.
func (d *Database) SaveInstalledApp(app *InstalledApp) error {
	if app == nil {
		return errors.New("app is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "app_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "version", "icon", "description", "updated_at"}),
	}).Create(app).Error
}

// DeleteInstalledApp removes an installed app and reports whether a row was
// deleted.
func (d *Database) DeleteInstalledApp(appID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	res := d.gorm.Delete(&InstalledApp{}, "app_id = ?", appID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListMissionProgress returns all persisted mission progress rows.
func (d *Database) ListMissionProgress() ([]MissionProgress, error) {
	var rows []MissionProgress
	if err := d.gorm.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// GetMissionProgress fetches progress for a single mission.
func (d *Database) GetMissionProgress(missionID string) (*MissionProgress, error) {
	var row MissionProgress
	if err := d.gorm.First(&row, "mission_id = ?", missionID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// SaveMissionProgress inserts or updates a mission progress row.
func (d *Database) SaveMissionProgress(progress *MissionProgress) error {
	if progress == nil {
		return errors.New("progress is nil")
	}
	progress.UpdatedAt = time.Now().UTC()
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mission_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"completed", "completed_at", "updated_at"}),
	}).Create(progress).Error
}

// SaveTelemetryBatch persists an uploaded telemetry batch.
func (d *Database) SaveTelemetryBatch(batch *TelemetryBatch) error {
	if batch == nil {
		return errors.New("batch is nil")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.gorm.Create(batch).Error
}

// GetTelemetryBatch fetches a telemetry batch by primary key.
func (d *Database) GetTelemetryBatch(id uint) (*TelemetryBatch, error) {
	var batch TelemetryBatch
	if err := d.gorm.First(&batch, id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// ListTelemetryBatches returns batches newest first plus the total count.
func (d *Database) ListTelemetryBatches(offset, limit int) ([]TelemetryBatch, int64, error) {
	var total int64
	if err := d.gorm.Model(&TelemetryBatch{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	q := d.gorm.Model(&TelemetryBatch{}).Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Offset(offset).Limit(limit)
	}
	var rows []TelemetryBatch
	if err := q.Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
