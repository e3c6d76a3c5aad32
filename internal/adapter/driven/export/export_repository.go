package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
	"github.com/diillson/aws-macie-tagger-go/internal/domain/repository"
)

// ExportRepositoryImpl implementa o ExportRepository.
type ExportRepositoryImpl struct{}

// NewExportRepository cria uma nova implementação do ExportRepository.
func NewExportRepository() repository.ExportRepository {
	return &ExportRepositoryImpl{}
}

var csvHeaders = []string{
	"Source Object", "Line", "Finding ID", "Finding Type", "Severity",
	"Target Bucket", "Target Key", "Target Version",
	"Action", "Tag Changed", "Lifecycle Changed", "Error",
}

func (r *ExportRepositoryImpl) ExportReportToCSV(report entity.ProcessReport, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "csv")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(csvHeaders); err != nil {
		return "", fmt.Errorf("error writing CSV header: %w", err)
	}
	for _, o := range report.Outcomes {
		severity := ""
		if o.Finding.Severity != "" {
			severity = o.Finding.Severity.String()
		}
		record := []string{
			o.Source.String(),
			strconv.Itoa(o.Line),
			o.Finding.ID,
			o.Finding.Type,
			severity,
			o.Finding.Target.Bucket,
			o.Finding.Target.Key,
			o.Finding.Target.VersionID,
			string(o.Action),
			strconv.FormatBool(o.TagChanged),
			strconv.FormatBool(o.LifecycleChanged),
			cleanRichTags(o.Error),
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("error writing CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("error flushing CSV file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

func (r *ExportRepositoryImpl) ExportReportToJSON(report entity.ProcessReport, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "json")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return "", fmt.Errorf("error encoding JSON data: %w", err)
	}

	return filepath.Abs(outputFilename)
}

func (r *ExportRepositoryImpl) ExportReportToPDF(report entity.ProcessReport, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "pdf")
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	headerColor := [3]int{128, 0, 64}
	headerTextColor := [3]int{255, 255, 255}
	sectionTitleColor := [3]int{0, 0, 0}
	bodyTextColor := [3]int{50, 50, 50}
	lineColor := [3]int{200, 200, 200}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Macie Severity Tagging Report | %s", time.Now().Format("2006-01-02"))), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 10, tr(fmt.Sprintf("Page %d", pdf.PageNo())), "", 0, "R", false, 0, "")
	})

	drawSection := func(title string, content string) {
		content = cleanRichTags(content)
		if strings.TrimSpace(content) == "" {
			return
		}
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(sectionTitleColor[0], sectionTitleColor[1], sectionTitleColor[2])
		pdf.Cell(0, 8, tr(title))
		pdf.Ln(7)
		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(4)
		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		pdf.MultiCell(190, 5, tr(content), "", "L", false)
		pdf.Ln(8)
	}

	pdf.AddPage()

	// Cabeçalho
	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	title := "  Macie Severity Tagging Report"
	if report.DryRun {
		title += " (dry run)"
	}
	pdf.CellFormat(0, 12, tr(title), "", 1, "L", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	if report.AccountID != "" {
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("  Account ID: %s", report.AccountID)), "", 1, "L", true, 0, "")
	}
	pdf.Ln(6)

	drawSection("Summary", summaryText(report.Summary))
	drawSection("Tagged Objects", outcomesText(report.Outcomes, entity.ActionTagged, entity.ActionUnchanged))
	drawSection("Failures", outcomesText(report.Outcomes, entity.ActionFailed))
	drawSection("Skipped", outcomesText(report.Outcomes,
		entity.ActionSkipped, entity.ActionMalformed, entity.ActionMissing, entity.ActionGone, entity.ActionTagLimit))

	if err := pdf.OutputFileAndClose(outputFilename); err != nil {
		return "", fmt.Errorf("error writing PDF file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

func summaryText(s entity.Summary) string {
	counters := s.Counters()
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Results objects: %d\nFindings: %d\n\n", s.Records, s.Findings))
	for _, name := range names {
		b.WriteString(fmt.Sprintf("%s: %d\n", name, counters[name]))
	}
	return b.String()
}

// outcomesText lista até 50 resultados com uma das ações informadas.
func outcomesText(outcomes []entity.FindingOutcome, actions ...entity.Action) string {
	const maxListed = 50

	wanted := make(map[entity.Action]bool, len(actions))
	for _, a := range actions {
		wanted[a] = true
	}

	var (
		b     strings.Builder
		count int
	)
	for _, o := range outcomes {
		if !wanted[o.Action] {
			continue
		}
		count++
		if count > maxListed {
			continue
		}
		target := o.Source.String()
		if o.Finding.HasTarget() {
			target = o.Finding.Target.String()
		}
		line := fmt.Sprintf("  - [%s] %s", o.Action, target)
		if o.Finding.Severity != "" {
			line += fmt.Sprintf(" (%s)", o.Finding.Severity)
		}
		if o.Error != "" {
			line += ": " + o.Error
		}
		b.WriteString(line + "\n")
	}
	if count > maxListed {
		b.WriteString(fmt.Sprintf("  ... (+%d more)\n", count-maxListed))
	}
	return b.String()
}

// --- Funções Auxiliares ---

// generateFilename cria um nome de arquivo único com timestamp e garante que o diretório exista.
func generateFilename(base, dir, ext string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.%s", base, timestamp, ext)
	return filepath.Join(dir, filename), nil
}

// Regex para limpar formatação pterm (rich tags) e sequências ANSI de cor/estilo.
var richTagRegex = regexp.MustCompile(`\[/?([a-zA-Z]+|#[0-9a-fA-F]{6})\]`)
var ansiRegex = regexp.MustCompile(`\x1B\[[0-9;]*[A-Za-z]`)

// cleanRichTags remove tags de formatação do pterm e sequências ANSI.
func cleanRichTags(text string) string {
	text = richTagRegex.ReplaceAllString(text, "")
	text = ansiRegex.ReplaceAllString(text, "")
	return text
}
