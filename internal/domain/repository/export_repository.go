package repository

import (
	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
)

type ExportRepository interface {
	ExportReportToCSV(report entity.ProcessReport, filename, outputDir string) (string, error)
	ExportReportToJSON(report entity.ProcessReport, filename, outputDir string) (string, error)
	ExportReportToPDF(report entity.ProcessReport, filename, outputDir string) (string, error)
}
