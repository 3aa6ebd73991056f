package service

import (
	"fmt"
	"strconv"

	"github.com/noah-isme/sma-records-api/internal/models"
	"github.com/noah-isme/sma-records-api/pkg/export"
)

// SnapshotRenderer turns a report snapshot into a printable document.
type SnapshotRenderer struct {
	renderer *export.Renderer
}

// NewSnapshotRenderer wraps the bundled PDF and CSV exporters.
func NewSnapshotRenderer(renderer *export.Renderer) *SnapshotRenderer {
	if renderer == nil {
		renderer = export.NewRenderer()
	}
	return &SnapshotRenderer{renderer: renderer}
}

// Render produces the bytes and content type for format.
func (r *SnapshotRenderer) Render(snapshot models.ReportSnapshot, format string) ([]byte, string, error) {
	doc := export.Document{
		Title: "Academic Performance Report",
		Fields: []export.Field{
			{Label: "Report number", Value: snapshot.ReportNumber},
			{Label: "Title", Value: snapshot.Title},
			{Label: "Type", Value: string(snapshot.Type)},
			{Label: "Grade", Value: snapshot.Grade},
			{Label: "Class", Value: snapshot.ClassInfo},
			{Label: "Period", Value: fmt.Sprintf("%s to %s", snapshot.PeriodStart.Format(dateLayout), snapshot.PeriodEnd.Format(dateLayout))},
			{Label: "Created by", Value: snapshot.CreatedBy},
			{Label: "Created at", Value: snapshot.CreatedAt.UTC().Format("2006-01-02 15:04")},
		},
		Table: export.Dataset{
			Headers: []string{"metric", "value"},
			Rows: []map[string]string{
				{"metric": "attendanceRate", "value": strconv.Itoa(snapshot.Summary.AttendanceRate) + "%"},
				{"metric": "behaviorIncidents", "value": strconv.Itoa(snapshot.Summary.BehaviorIncidents)},
				{"metric": "totalRecords", "value": strconv.Itoa(snapshot.Summary.TotalRecords)},
			},
		},
	}
	if snapshot.Content != "" {
		doc.Fields = append(doc.Fields, export.Field{Label: "Notes", Value: snapshot.Content})
	}
	return r.renderer.Render(doc, format)
}
