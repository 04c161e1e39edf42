// Package scheduler keeps the served therapies dictionary fresh by re-running
// the conversion on a fixed interval and swapping the result into the data store.
package scheduler

import (
	"fmt"
	"time"

	"github.com/giygas/terapias-dictionary/interfaces"
	"github.com/giygas/terapias-dictionary/logging"
	"github.com/giygas/terapias-dictionary/validation"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles data refreshes using dependency injection
type Scheduler struct {
	dataStore interfaces.DataStore
	converter interfaces.Converter
	validator interfaces.DataValidator
	interval  time.Duration
	scheduler *gocron.Scheduler
}

// NewScheduler creates a new scheduler refreshing every interval
func NewScheduler(dataStore interfaces.DataStore, converter interfaces.Converter, interval time.Duration) *Scheduler {
	return &Scheduler{
		dataStore: dataStore,
		converter: converter,
		validator: validation.NewDataValidator(),
		interval:  interval,
		scheduler: gocron.NewScheduler(time.Local),
	}
}

// Start performs the initial conversion, which must succeed, then schedules refreshes
func (s *Scheduler) Start() error {
	if err := s.updateData(); err != nil {
		logging.Error("Failed to perform initial data load", "error", err)
		return fmt.Errorf("initial data load failed: %w", err)
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		if err := s.updateData(); err != nil {
			logging.Error("Failed to refresh therapies, keeping previous data", "error", err)
		}
	})
	if err != nil {
		logging.Error("Failed to schedule updates", "error", err)
		return fmt.Errorf("failed to schedule updates: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Therapies refresh scheduled", "every", s.interval.String())

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// updateData runs one conversion and publishes it. The previous data stays
// in place when the conversion fails.
func (s *Scheduler) updateData() error {
	if !s.dataStore.BeginUpdate() {
		logging.Info("Update already in progress, skipping...")
		return nil
	}
	defer s.dataStore.EndUpdate()

	start := time.Now()

	therapies, metadata, err := s.converter.Convert()
	if err != nil {
		return fmt.Errorf("failed to convert therapies: %w", err)
	}

	report := s.validator.ReportDataQuality(therapies)

	if len(report.DuplicateIDs) > 0 {
		logging.Warn("Duplicate therapy ids detected",
			"total", len(report.DuplicateIDs),
			"id_list", report.DuplicateIDs,
		)
	}

	if len(report.MissingIDRows) > 0 {
		logging.Warn("Therapies without a numeric id",
			"count", len(report.MissingIDRows),
			"row_list", report.MissingIDRows,
		)
	}

	if report.EmptyDefinitions > 0 {
		logging.Warn("Therapies without a definition", "count", report.EmptyDefinitions)
	}

	if report.NonContiguousIDs {
		logging.Debug("Therapy ids are not contiguous")
	}

	s.dataStore.UpdateData(therapies, metadata, report)

	logging.Info("Therapies update completed",
		"duration", time.Since(start).String(),
		"therapy_count", len(therapies))

	return nil
}
