package export

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/shrimpsizemoose/trekker/logger"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/shrimpsizemoose/registrar/internal/app"
	"github.com/shrimpsizemoose/registrar/internal/models"
)

const (
	rosterDateFormat = "2006-01-02"
	stampFormat      = "2 January 15:04"
)

// SheetWriter is the part of the Sheets API the exporter uses.
type SheetWriter interface {
	Clear(ctx context.Context, sheetID, rng string) error
	Update(ctx context.Context, sheetID, rng string, values [][]interface{}) error
}

type sheetsWriter struct {
	svc *sheets.Service
}

func (w *sheetsWriter) Clear(ctx context.Context, sheetID, rng string) error {
	_, err := w.svc.Spreadsheets.Values.Clear(sheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

func (w *sheetsWriter) Update(ctx context.Context, sheetID, rng string, values [][]interface{}) error {
	_, err := w.svc.Spreadsheets.Values.Update(sheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

type GSheetExporter struct {
	config    *app.Config
	service   *app.Service
	scheduler *gocron.Scheduler
	now       func() time.Time
}

// NewGSheetExporter schedules one roster push per [[gsheet.<course code>]] entry.
func NewGSheetExporter(config *app.Config, service *app.Service) (*GSheetExporter, error) {
	ctx := context.Background()
	e := &GSheetExporter{
		config:    config,
		service:   service,
		scheduler: gocron.NewScheduler(time.UTC),
		now:       time.Now,
	}

	for courseCode, configs := range config.GSheet {
		for _, cfg := range configs {
			svc, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath))
			if err != nil {
				return nil, fmt.Errorf("failed to create sheets service: %w", err)
			}
			writer := &sheetsWriter{svc: svc}

			_, err = e.scheduler.Cron(cfg.Schedule).Do(func() {
				if err := e.Export(context.Background(), writer, courseCode, cfg); err != nil {
					logger.Error.Printf("Roster export of %s to %s failed: %v", courseCode, cfg.SheetID, err)
				}
			})
			if err != nil {
				return nil, fmt.Errorf("failed to schedule export of %s: %w", courseCode, err)
			}
			logger.Info.Printf("Scheduled roster export of %s to sheet %s (%s)", courseCode, cfg.SheetID, cfg.Schedule)
		}
	}

	return e, nil
}

func (e *GSheetExporter) Start() {
	e.scheduler.StartAsync()
}

func (e *GSheetExporter) Stop() {
	e.scheduler.Stop()
}

// Export overwrites the configured range with the course's active roster and stamps the update time.
func (e *GSheetExporter) Export(ctx context.Context, w SheetWriter, courseCode string, cfg app.GSheetConfig) error {
	course, err := e.service.Store.GetCourseByCode(ctx, courseCode)
	if err != nil {
		return err
	}
	if course == nil {
		return models.ErrCourseNotFound
	}

	_, roster, err := e.service.Lifecycle.Roster(ctx, course.ID)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}

	rng := fmt.Sprintf("%s!%s", cfg.SheetName, cfg.Range)
	if err := w.Clear(ctx, cfg.SheetID, rng); err != nil {
		return fmt.Errorf("failed to clear %s: %w", rng, err)
	}
	if len(roster) > 0 {
		if err := w.Update(ctx, cfg.SheetID, rng, RosterRows(roster)); err != nil {
			return fmt.Errorf("failed to write roster: %w", err)
		}
	}

	if cfg.TimestampRange != "" {
		stamp := "UPD: " + e.now().Format(stampFormat)
		if variants := e.config.EmojiVariants; len(variants) > 0 {
			stamp += " " + variants[rand.Intn(len(variants))]
		}
		stampRange := fmt.Sprintf("%s!%s", cfg.SheetName, cfg.TimestampRange)
		if err := w.Update(ctx, cfg.SheetID, stampRange, [][]interface{}{{stamp}}); err != nil {
			return fmt.Errorf("failed to stamp update time: %w", err)
		}
	}

	logger.Debug.Printf("Exported %d students of %s to %s", len(roster), courseCode, cfg.SheetID)
	return nil
}

// RosterRows renders roster entries as student no, name, enroll date, status, grade.
func RosterRows(roster []models.RosterEntry) [][]interface{} {
	rows := make([][]interface{}, 0, len(roster))
	for _, r := range roster {
		grade := ""
		if r.Grade != nil {
			grade = *r.Grade
		}
		rows = append(rows, []interface{}{
			r.StudentNo,
			r.StudentName,
			r.EnrollDate.Format(rosterDateFormat),
			r.Status,
			grade,
		})
	}
	return rows
}
