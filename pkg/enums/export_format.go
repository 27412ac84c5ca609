package enums

import (
	"fmt"
	"strings"
)

// ExportFormat selects the tabular encoding used for history downloads.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
)

var validExportFormats = []ExportFormat{
	ExportFormatCSV,
	ExportFormatXLSX,
}

// String implements fmt.Stringer.
func (f ExportFormat) String() string {
	return string(f)
}

// IsValid reports whether the value is a supported export format.
func (f ExportFormat) IsValid() bool {
	for _, candidate := range validExportFormats {
		if candidate == f {
			return true
		}
	}
	return false
}

// ContentType returns the MIME type served for the format.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// ParseExportFormat converts raw input into ExportFormat. Empty input selects xlsx.
func ParseExportFormat(value string) (ExportFormat, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ExportFormatXLSX, nil
	}
	for _, candidate := range validExportFormats {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid export format %q", value)
}
