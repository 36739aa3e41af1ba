package ports

import (
	"context"

	"physlab/domain/table"
)

// SheetReaderPort reads a tabular region from a spreadsheet or CSV file
type SheetReaderPort interface {
	ReadTable(ctx context.Context, path, sheet string) (*table.Table, error)
}
