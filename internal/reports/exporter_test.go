package reports

import (
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"dormcore/internal/blob"
	"dormcore/internal/core"
)

type captureAudit struct {
	reportID  string
	artifacts []Artifact
	calls     int
}

func (a *captureAudit) ReportExported(_ context.Context, reportID string, artifacts []Artifact) {
	a.reportID = reportID
	a.artifacts = artifacts
	a.calls++
}

func seedService(t *testing.T) *core.Service {
	t.Helper()
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	ctx := context.Background()

	dorm, _, err := svc.CreateDormitory(ctx, core.Dormitory{Number: 1, Address: "5 Main Street"})
	if err != nil {
		t.Fatalf("create dormitory: %v", err)
	}
	room, _, err := svc.CreateRoom(ctx, core.Room{DormitoryID: dorm.ID, Number: 101, Capacity: 2, Floor: 1})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	res, _, err := svc.RegisterResident(ctx, core.Resident{
		FullName:  "Anna Petrova",
		BirthDate: time.Date(1994, 7, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("register resident: %v", err)
	}
	if _, _, err := svc.Settle(ctx, room.ID, []string{res.ID}, nil); err != nil {
		t.Fatalf("settle: %v", err)
	}
	return svc
}

func TestBuildOccupancyReport(t *testing.T) {
	svc := seedService(t)
	store := blob.NewMemory()
	exporter := NewExporter(svc, store, nil)
	generated := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	exporter.SetNowFunc(func() time.Time { return generated })

	report, err := exporter.BuildOccupancyReport(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if report.ID == "" {
		t.Fatal("report id must be set")
	}
	if !report.GeneratedAt.Equal(generated) {
		t.Fatalf("generated at %s, want %s", report.GeneratedAt, generated)
	}
	if report.TotalCapacity != 2 || report.TotalOccupied != 1 || report.AvailablePlaces != 1 {
		t.Fatalf("totals mismatch %+v", report)
	}
	if len(report.Dormitories) != 1 || report.Dormitories[0].Dormitory.Number != 1 {
		t.Fatalf("dormitory summary missing: %+v", report.Dormitories)
	}
}

func TestExportWritesArtifactsAndAudits(t *testing.T) {
	svc := seedService(t)
	store := blob.NewMemory()
	audit := &captureAudit{}
	exporter := NewExporter(svc, store, audit)

	report, artifacts, err := exporter.Export(context.Background(), FormatJSON, FormatCSV)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %d", len(artifacts))
	}
	if audit.calls != 1 || audit.reportID != report.ID || len(audit.artifacts) != 2 {
		t.Fatalf("audit hook mismatch: %+v", audit)
	}

	// JSON artifact decodes back into the report.
	_, rc, err := store.Get(context.Background(), "reports/occupancy/"+report.ID+".json")
	if err != nil {
		t.Fatalf("get json artifact: %v", err)
	}
	var decoded OccupancyReport
	if err := json.NewDecoder(rc).Decode(&decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	_ = rc.Close()
	if decoded.ID != report.ID || decoded.TotalCapacity != report.TotalCapacity {
		t.Fatalf("decoded report mismatch: %+v", decoded)
	}

	// CSV artifact carries the header and one row per room.
	_, rc, err = store.Get(context.Background(), "reports/occupancy/"+report.ID+".csv")
	if err != nil {
		t.Fatalf("get csv artifact: %v", err)
	}
	raw, _ := io.ReadAll(rc)
	_ = rc.Close()
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header plus one row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "dormitory_number,dormitory_address") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "Anna Petrova") {
		t.Fatalf("row must carry occupant names, got %q", lines[1])
	}
}

func TestExportDefaultsToJSON(t *testing.T) {
	svc := seedService(t)
	store := blob.NewMemory()
	exporter := NewExporter(svc, store, nil)

	_, artifacts, err := exporter.Export(context.Background())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(artifacts) != 1 || artifacts[0].Format != FormatJSON {
		t.Fatalf("expected a single json artifact, got %+v", artifacts)
	}
}
