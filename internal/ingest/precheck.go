package ingest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/joseph-ayodele/invoice-pipeline/constants"
	"github.com/joseph-ayodele/invoice-pipeline/internal/common"
)

// CheckSource verifies that a candidate invoice file exists, carries an
// allowed extension, and, for PDFs, parses as a non-empty document. It is
// meant for callers that accept paths from outside (uploads, batch walks,
// watch events) before spending an extraction call on them.
func CheckSource(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return common.NewAppError(common.KindPrecondition, fmt.Sprintf("invoice file %s", path), err)
	}
	if info.IsDir() {
		return common.NewAppError(common.KindPrecondition, fmt.Sprintf("%s is a directory", path), nil)
	}
	if !AllowedExt(path) {
		return common.NewAppError(common.KindPrecondition,
			fmt.Sprintf("unsupported file type %q", filepath.Ext(path)), nil)
	}
	if info.Size() == 0 {
		return common.NewAppError(common.KindPrecondition, fmt.Sprintf("%s is empty", path), nil)
	}

	if constants.MapExtToFormat(filepath.Ext(path)) == constants.PDF {
		pages, err := api.PageCountFile(path)
		if err != nil {
			return common.NewAppError(common.KindPrecondition, fmt.Sprintf("%s is not a readable PDF", path), err)
		}
		if pages == 0 {
			return common.NewAppError(common.KindPrecondition, fmt.Sprintf("%s has no pages", path), nil)
		}
	}
	return nil
}
