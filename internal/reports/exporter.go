// Package reports builds occupancy reports from the service layer and
// archives them as JSON and CSV artifacts in blob storage.
package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"dormcore/internal/blob"
	"dormcore/internal/core"
)

// Format identifies an artifact encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// OccupancyReport is the archivable aggregate over all dormitories.
type OccupancyReport struct {
	ID              string                  `json:"id"`
	GeneratedAt     time.Time               `json:"generated_at"`
	Dormitories     []core.DormitorySummary `json:"dormitories"`
	TotalCapacity   int                     `json:"total_capacity"`
	TotalOccupied   int                     `json:"total_occupied"`
	AvailablePlaces int                     `json:"available_places"`
}

// Artifact describes one stored report encoding.
type Artifact struct {
	Key         string `json:"key"`
	Format      Format `json:"format"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	URL         string `json:"url,omitempty"`
}

// AuditLogger records report export events.
type AuditLogger interface {
	ReportExported(ctx context.Context, reportID string, artifacts []Artifact)
}

// Exporter builds occupancy reports and writes them to blob storage.
type Exporter struct {
	service *core.Service
	store   blob.Store
	audit   AuditLogger
	nowFn   func() time.Time
}

// NewExporter constructs an exporter. audit may be nil.
func NewExporter(service *core.Service, store blob.Store, audit AuditLogger) *Exporter {
	return &Exporter{
		service: service,
		store:   store,
		audit:   audit,
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the report clock. Intended for tests.
func (e *Exporter) SetNowFunc(now func() time.Time) {
	if now != nil {
		e.nowFn = now
	}
}

// BuildOccupancyReport assembles the report without persisting it.
func (e *Exporter) BuildOccupancyReport(ctx context.Context) (OccupancyReport, error) {
	summaries, err := e.service.ListDormitorySummaries(ctx)
	if err != nil {
		return OccupancyReport{}, err
	}
	report := OccupancyReport{
		ID:          uuid.NewString(),
		GeneratedAt: e.nowFn(),
		Dormitories: summaries,
	}
	for _, summary := range summaries {
		report.TotalCapacity += summary.TotalCapacity
		report.TotalOccupied += summary.TotalOccupied
	}
	report.AvailablePlaces = report.TotalCapacity - report.TotalOccupied
	return report, nil
}

// Export builds the occupancy report and stores one artifact per requested
// format. Keys follow reports/occupancy/<report-id>.<format>.
func (e *Exporter) Export(ctx context.Context, formats ...Format) (OccupancyReport, []Artifact, error) {
	if len(formats) == 0 {
		formats = []Format{FormatJSON}
	}
	report, err := e.BuildOccupancyReport(ctx)
	if err != nil {
		return OccupancyReport{}, nil, err
	}
	var artifacts []Artifact
	for _, format := range formats {
		payload, contentType, err := encodeReport(report, format)
		if err != nil {
			return OccupancyReport{}, nil, err
		}
		key := fmt.Sprintf("reports/occupancy/%s.%s", report.ID, format)
		info, err := e.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
			ContentType: contentType,
			Metadata:    map[string]string{"report_id": report.ID},
		})
		if err != nil {
			return OccupancyReport{}, nil, fmt.Errorf("store %s artifact: %w", format, err)
		}
		artifacts = append(artifacts, Artifact{
			Key:         info.Key,
			Format:      format,
			ContentType: contentType,
			SizeBytes:   info.Size,
			URL:         info.URL,
		})
	}
	if e.audit != nil {
		e.audit.ReportExported(ctx, report.ID, artifacts)
	}
	return report, artifacts, nil
}

func encodeReport(report OccupancyReport, format Format) ([]byte, string, error) {
	switch format {
	case FormatJSON:
		payload, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, "", err
		}
		return payload, "application/json", nil
	case FormatCSV:
		payload, err := encodeCSV(report)
		if err != nil {
			return nil, "", err
		}
		return payload, "text/csv", nil
	default:
		return nil, "", fmt.Errorf("unknown report format %s", format)
	}
}

func encodeCSV(report OccupancyReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"dormitory_number", "dormitory_address", "room_number", "floor", "capacity", "occupied", "available", "occupant_names"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, summary := range report.Dormitories {
		for _, room := range summary.Rooms {
			row := []string{
				strconv.Itoa(summary.Dormitory.Number),
				summary.Dormitory.Address,
				strconv.Itoa(room.Room.Number),
				strconv.Itoa(room.Room.Floor),
				strconv.Itoa(room.Room.Capacity),
				strconv.Itoa(room.Occupied),
				strconv.Itoa(room.AvailablePlaces),
				room.OccupantNames,
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
