package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"physlab/domain/table"
	"physlab/internal"
	"physlab/internal/errors"
	"physlab/ports"
)

// DefaultSheet is read when no sheet name is given and the workbook has one
const DefaultSheet = "Sheet1"

// DataReader handles reading Excel and CSV files
type DataReader struct {
	logger *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{logger: logger}
}

var _ ports.SheetReaderPort = (*DataReader)(nil)

func fileType(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return "csv"
	}
	return "xlsx"
}

// ReadTable reads the header row and data rows of one sheet. CSV files
// have a single implicit sheet, so sheet is ignored for them.
func (r *DataReader) ReadTable(ctx context.Context, path, sheet string) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	kind := fileType(path)
	// Check if file exists
	if _, err := os.Stat(path); err != nil {
		return nil, errors.IOError(fmt.Sprintf("%s file not found: %s", strings.ToUpper(kind), path), err)
	}

	var (
		rows [][]string
		err  error
	)
	start := time.Now()
	switch kind {
	case "csv":
		rows, err = r.readCSV(path)
		sheet = ""
	default:
		rows, sheet, err = r.readExcel(path, sheet)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Trace("[DataReader] %s read in %.2fms (%d rows)", path, float64(time.Since(start).Nanoseconds())/1e6, len(rows))

	return processRows(path, sheet, rows)
}

// readExcel reads all rows of the named sheet, defaulting to the first sheet
func (r *DataReader) readExcel(path, sheet string) ([][]string, string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, "", errors.IOError("failed to open Excel file", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = DefaultSheet
		if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
			if list := f.GetSheetList(); len(list) > 0 {
				sheet = list[0]
			}
		}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, "", errors.IOError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}
	return rows, sheet, nil
}

// readCSV reads a comma separated file, tolerating ragged rows
func (r *DataReader) readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.IOError("failed to open CSV file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.IOError("failed to read CSV file", err)
	}
	return rows, nil
}

// processRows splits the header row from the data rows
func processRows(path, sheet string, rows [][]string) (*table.Table, error) {
	if len(rows) == 0 {
		return nil, errors.InsufficientData(fmt.Sprintf("%s has no header row", path))
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	return &table.Table{
		Source:  path,
		Sheet:   sheet,
		Headers: headers,
		Rows:    rows[1:],
	}, nil
}
