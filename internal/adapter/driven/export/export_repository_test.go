package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
)

func sampleReport() entity.ProcessReport {
	src := entity.ObjectRef{Bucket: "results", Key: "findings/2024/01/01/batch-1"}
	return entity.ProcessReport{
		AccountID: "123456789012",
		Summary:   entity.Summary{Records: 1, Findings: 3, TaggingSuccess: 1, TaggingSkipped: 1, TaggingFailed: 1},
		Outcomes: []entity.FindingOutcome{
			{Source: src, Line: 1, Action: entity.ActionTagged, TagChanged: true, LifecycleChanged: true,
				Finding: entity.Finding{ID: "f-1", Type: "SensitiveData:S3Object/Financial", Severity: entity.SeverityHigh,
					Target: entity.ObjectRef{Bucket: "data", Key: "cards.csv", VersionID: "v1"}}},
			{Source: src, Line: 2, Action: entity.ActionSkipped,
				Finding: entity.Finding{ID: "f-2", Severity: entity.SeverityLow, Target: entity.ObjectRef{Bucket: "data", Key: "notes.txt"}}},
			{Source: src, Line: 3, Action: entity.ActionFailed, Error: "AccessDenied",
				Finding: entity.Finding{ID: "f-3", Severity: entity.SeverityHigh, Target: entity.ObjectRef{Bucket: "locked", Key: "x"}}},
		},
	}
}

func TestExportReportToCSV(t *testing.T) {
	dir := t.TempDir()
	path, err := NewExportRepository().ExportReportToCSV(sampleReport(), "report", dir)
	if err != nil {
		t.Fatalf("ExportReportToCSV() error = %v", err)
	}
	if filepath.Dir(path) != dir || !strings.HasPrefix(filepath.Base(path), "report_") || filepath.Ext(path) != ".csv" {
		t.Errorf("unexpected path %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(rows))
	}
	if rows[1][2] != "f-1" || rows[1][4] != "High" || rows[1][8] != "tagged" || rows[1][9] != "true" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
	if rows[3][11] != "AccessDenied" {
		t.Errorf("error column = %q", rows[3][11])
	}
}

func TestExportReportToJSON(t *testing.T) {
	dir := t.TempDir()
	path, err := NewExportRepository().ExportReportToJSON(sampleReport(), "report", dir)
	if err != nil {
		t.Fatalf("ExportReportToJSON() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got entity.ProcessReport
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.AccountID != "123456789012" || len(got.Outcomes) != 3 || got.Summary.TaggingSuccess != 1 {
		t.Errorf("unexpected report: %+v", got)
	}
}

func TestExportReportToPDF(t *testing.T) {
	dir := t.TempDir()
	report := sampleReport()
	report.DryRun = true
	path, err := NewExportRepository().ExportReportToPDF(report, "report", dir)
	if err != nil {
		t.Fatalf("ExportReportToPDF() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Errorf("output is not a PDF")
	}
}

func TestOutcomesText(t *testing.T) {
	var outcomes []entity.FindingOutcome
	for i := 0; i < 55; i++ {
		outcomes = append(outcomes, entity.FindingOutcome{Action: entity.ActionSkipped})
	}
	text := outcomesText(outcomes, entity.ActionSkipped)
	if !strings.Contains(text, "(+5 more)") {
		t.Errorf("expected truncation marker, got %q", text[len(text)-40:])
	}
	if outcomesText(outcomes, entity.ActionFailed) != "" {
		t.Error("expected empty text for unmatched action")
	}
}

func TestCleanRichTags(t *testing.T) {
	in := "[red]AccessDenied[/red] \x1b[31mdenied\x1b[0m"
	if got := cleanRichTags(in); got != "AccessDenied denied" {
		t.Errorf("cleanRichTags() = %q", got)
	}
}
