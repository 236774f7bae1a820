package delivery

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	apperrors "bayi-rut/internal/common/errors"

	"github.com/xuri/excelize/v2"
)

// WorkbookInfo summarises an exported workbook.
type WorkbookInfo struct {
	Sheets []string
	Sheet  string
	Rows   int
}

// Inspect opens data as an xlsx workbook and counts the rows of its first
// sheet. Anything unreadable is an export delivery error.
func Inspect(data []byte) (*WorkbookInfo, error) {
	if len(data) == 0 {
		return nil, apperrors.NewExportDeliveryError("inspect", fmt.Errorf("empty file"))
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewExportDeliveryError("inspect", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewExportDeliveryError("inspect", fmt.Errorf("no worksheet found"))
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewExportDeliveryError("inspect", err)
	}
	return &WorkbookInfo{Sheets: sheets, Sheet: sheets[0], Rows: len(rows)}, nil
}

// Filename returns the name to save an export under. The server's name wins
// over the default rut_talep_<id>.xlsx.
func Filename(serverName, requestID string) string {
	if name := SanitizeFilename(serverName); name != "" {
		if filepath.Ext(name) == "" {
			name += ".xlsx"
		}
		return name
	}
	if id := SanitizeFilename(requestID); id != "" {
		return "rut_talep_" + id + ".xlsx"
	}
	return "rut_talep.xlsx"
}

// SanitizeFilename strips directories and characters that are unsafe on
// common filesystems.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == "/" || name == ".." {
		return ""
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case strings.ContainsRune(`<>:"/\|?*`, r), unicode.IsControl(r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), " .")
}
