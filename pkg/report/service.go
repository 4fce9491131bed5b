package report

import (
	"bytes"
	"fmt"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/aggregator"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/presentation"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

const (
	Title        = "Rapport consommation et production"
	SummarySheet = "Résumé"
	DataSheet    = "Données"
	PeriodSheet  = "Périodes"

	timeLayout = "2006-01-02 15:04"
	dayLayout  = "2006-01-02"
)

// FileName returns the download name of a report of view.
func FileName(view presentation.View, ext string) string {
	if view.Empty {
		return fmt.Sprintf("rapport_%s.%s", view.Mode, ext)
	}
	return fmt.Sprintf("rapport_%s_%s_%s.%s", view.Mode, view.From.Format(dayLayout), view.To.Format(dayLayout), ext)
}

// BuildXLSX renders view as a workbook with a summary sheet, the merged rows
// and, when the view is bucketed, one row per period.
func BuildXLSX(view presentation.View) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(DataSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(SummarySheet, "A1", Title)
	_ = f.SetCellValue(SummarySheet, "A2", "Mode")
	_ = f.SetCellValue(SummarySheet, "B2", view.Mode)
	row := 3
	if !view.Empty {
		_ = f.SetCellValue(SummarySheet, "A3", "Période")
		_ = f.SetCellValue(SummarySheet, "B3", view.From.Format(timeLayout)+" - "+view.To.Format(timeLayout))
		row = 4
	}
	for _, ind := range view.Info {
		_ = f.SetCellValue(SummarySheet, cell("A", row), ind.Label)
		_ = f.SetCellValue(SummarySheet, cell("B", row), ind.Value)
		row++
	}
	if view.Averages.Buckets > 0 {
		row++
		_ = f.SetCellValue(SummarySheet, cell("A", row), "Moyenne par "+averageLabel(view.Averages.Granularity))
		row++
		for _, avg := range []struct {
			label string
			value float64
		}{
			{"Consommation (kWh)", view.Averages.ConsumptionKWh},
			{"Production (kWh)", view.Averages.ProductionKWh},
			{"Total (kWh)", view.Averages.TotalKWh},
		} {
			_ = f.SetCellValue(SummarySheet, cell("A", row), avg.label)
			_ = f.SetCellValue(SummarySheet, cell("B", row), avg.value)
			row++
		}
	}

	for i, header := range []string{"datetime", "consommation", "production", "total"} {
		_ = f.SetCellValue(DataSheet, cell(string(rune('A'+i)), 1), header)
	}
	for i, r := range view.Rows {
		row := i + 2
		_ = f.SetCellValue(DataSheet, cell("A", row), r.Timestamp.Format(timeLayout))
		_ = f.SetCellValue(DataSheet, cell("B", row), r.Consumption)
		_ = f.SetCellValue(DataSheet, cell("C", row), r.Production)
		_ = f.SetCellValue(DataSheet, cell("D", row), r.Total)
	}

	if len(view.Buckets) > 0 {
		if _, err := f.NewSheet(PeriodSheet); err != nil {
			return nil, err
		}
		for i, header := range []string{"période", "début", "consommation", "production", "total"} {
			_ = f.SetCellValue(PeriodSheet, cell(string(rune('A'+i)), 1), header)
		}
		for i, b := range view.Buckets {
			row := i + 2
			_ = f.SetCellValue(PeriodSheet, cell("A", row), b.Label)
			_ = f.SetCellValue(PeriodSheet, cell("B", row), b.Start.Format(dayLayout))
			_ = f.SetCellValue(PeriodSheet, cell("C", row), b.Consumption)
			_ = f.SetCellValue(PeriodSheet, cell("D", row), b.Production)
			_ = f.SetCellValue(PeriodSheet, cell("E", row), b.Total)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildPDF renders the summary of view and a table of period totals on A4.
// Views without buckets are totalled per day.
func BuildPDF(view presentation.View) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()

	pdf.Cell(0, 8, tr(Title))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, tr("Mode: "+view.Mode))
	pdf.Ln(5)
	if view.Empty {
		pdf.Cell(0, 6, tr(view.Message))
		pdf.Ln(5)
		return output(pdf)
	}
	pdf.Cell(0, 6, tr(fmt.Sprintf("Période: %s - %s", view.From.Format(timeLayout), view.To.Format(timeLayout))))
	pdf.Ln(8)

	for _, ind := range view.Info {
		pdf.CellFormat(80, 6, tr(ind.Label), "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, tr(ind.Value), "", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(4)

	buckets := view.Buckets
	if len(buckets) == 0 {
		totals, err := aggregator.Aggregate(view.Rows, aggregator.Day)
		if err != nil {
			return nil, err
		}
		for _, pt := range totals {
			buckets = append(buckets, presentation.LabeledTotal{PeriodTotal: pt, Label: pt.Start.Format(dayLayout)})
		}
	}

	// Totals table, in W samples like the merged table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, tr("Période"), "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Consommation", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Production", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Total", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, b := range buckets {
		pdf.CellFormat(60, 6, tr(b.Label), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.0f", b.Consumption), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.0f", b.Production), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.0f", b.Total), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func averageLabel(g aggregator.Granularity) string {
	switch g {
	case aggregator.Hour:
		return "heure"
	case aggregator.Day:
		return "jour"
	case aggregator.Week:
		return "semaine"
	default:
		return "mois"
	}
}
