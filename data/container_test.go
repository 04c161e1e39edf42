package data

import (
	"sync"
	"testing"
	"time"

	"github.com/giygas/terapias-dictionary/interfaces"
	"github.com/giygas/terapias-dictionary/therapyparser/entities"
)

func intPtr(n int) *int { return &n }

func TestNewDataContainer(t *testing.T) {
	dc := NewDataContainer()

	if got := dc.GetTherapies(); got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil therapies, got %v", got)
	}
	if got := dc.GetTherapiesByID(); got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil id map, got %v", got)
	}
	if dc.GetReport() == nil {
		t.Error("Expected non-nil report")
	}
	if !dc.GetLastUpdated().IsZero() {
		t.Error("Expected zero last updated time")
	}
	if dc.IsUpdating() {
		t.Error("Expected not updating")
	}
}

func TestUpdateData(t *testing.T) {
	dc := NewDataContainer()

	therapies := []entities.Therapy{
		{ID: intPtr(1), Name: "Acupuntura"},
		{ID: nil, Name: "Aromaterapia"},
		{ID: intPtr(1), Name: "Acupresión"},
		{ID: intPtr(3), Name: "Reiki"},
	}
	meta := entities.Metadata{TotalCount: 4, Source: "dict.csv", Format: "JSON estructurado"}
	report := &interfaces.DataQualityReport{DuplicateIDs: []int{1}}

	before := time.Now()
	dc.UpdateData(therapies, meta, report)

	if got := len(dc.GetTherapies()); got != 4 {
		t.Errorf("Expected 4 therapies, got %d", got)
	}

	byID := dc.GetTherapiesByID()
	if len(byID) != 2 {
		t.Errorf("Expected 2 ids in map, got %d", len(byID))
	}
	if byID[1].Name != "Acupuntura" {
		t.Errorf("Expected first record to win for id 1, got %s", byID[1].Name)
	}
	if dc.GetMetadata() != meta {
		t.Errorf("Expected metadata %+v, got %+v", meta, dc.GetMetadata())
	}
	if dc.GetReport() != report {
		t.Error("Expected the stored report")
	}
	if dc.GetLastUpdated().Before(before) {
		t.Error("Expected last updated to be refreshed")
	}
}

func TestUpdateDataNilValues(t *testing.T) {
	dc := NewDataContainer()
	dc.UpdateData(nil, entities.Metadata{}, nil)

	if dc.GetTherapies() == nil {
		t.Error("Expected non-nil therapies after nil update")
	}
	if dc.GetReport() == nil {
		t.Error("Expected non-nil report after nil update")
	}
}

func TestBeginEndUpdate(t *testing.T) {
	dc := NewDataContainer()

	if !dc.BeginUpdate() {
		t.Fatal("First BeginUpdate should succeed")
	}
	if dc.BeginUpdate() {
		t.Error("Second BeginUpdate should fail while updating")
	}
	if !dc.IsUpdating() {
		t.Error("Expected IsUpdating during update")
	}

	dc.EndUpdate()
	if dc.IsUpdating() {
		t.Error("Expected not updating after EndUpdate")
	}
	if !dc.BeginUpdate() {
		t.Error("BeginUpdate should succeed after EndUpdate")
	}
}

func TestConcurrentReadsDuringUpdates(t *testing.T) {
	dc := NewDataContainer()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			records := make([]entities.Therapy, n)
			for j := range records {
				records[j] = entities.Therapy{ID: intPtr(j), Name: "t"}
			}
			dc.UpdateData(records, entities.Metadata{TotalCount: n}, nil)
		}(i)
		go func() {
			defer wg.Done()
			_ = dc.GetTherapies()
			_ = dc.GetTherapiesByID()
			_ = dc.GetMetadata()
		}()
	}
	wg.Wait()

	// The snapshot must be consistent: metadata count matches the records
	if got, want := len(dc.GetTherapies()), dc.GetMetadata().TotalCount; got != want {
		t.Errorf("Inconsistent snapshot: %d records, metadata says %d", got, want)
	}
}
