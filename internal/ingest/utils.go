package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/invoice-pipeline/constants"
)

// AllowedExt reports whether the path has an extension the pipeline accepts.
func AllowedExt(path string) bool {
	ext := constants.NormalizeExt(filepath.Ext(path))
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

// IsHidden reports whether the file name starts with a dot. Editors and
// sync clients drop hidden temp files next to the real document.
func IsHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
