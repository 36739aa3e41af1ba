package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"physlab/domain/plot"
	"physlab/internal/errors"
)

// WritePeakTable saves a peak table as xlsx or csv, chosen by extension
func WritePeakTable(path string, t plot.PeakTable) error {
	rows := make([][]float64, len(t.Rows))
	for i, p := range t.Rows {
		rows[i] = []float64{p.X, p.Y}
	}
	return WriteColumns(path, t.Columns[:], rows)
}

// WriteColumns saves a header row and numeric rows to xlsx or csv
func WriteColumns(path string, headers []string, rows [][]float64) error {
	if fileType(path) == "csv" {
		return writeCSV(path, headers, rows)
	}
	return writeExcel(path, headers, rows)
}

func writeExcel(path string, headers []string, rows [][]float64) error {
	f := excelize.NewFile()
	defer f.Close()

	for c, h := range headers {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return errors.Wrap(err, "header cell")
		}
		if err := f.SetCellValue(DefaultSheet, cell, h); err != nil {
			return errors.IOError(fmt.Sprintf("write %s", cell), err)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return errors.Wrap(err, "data cell")
			}
			if err := f.SetCellValue(DefaultSheet, cell, v); err != nil {
				return errors.IOError(fmt.Sprintf("write %s", cell), err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		return errors.IOError("failed to save Excel file", err)
	}
	return nil
}

func writeCSV(path string, headers []string, rows [][]float64) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.IOError("failed to create CSV file", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(headers); err != nil {
		return errors.IOError("failed to write CSV header", err)
	}
	for _, row := range rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return errors.IOError("failed to write CSV row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.IOError("failed to flush CSV file", err)
	}
	return nil
}
