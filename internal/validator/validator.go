package validator

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/docvision/docvision-api/internal/models"
	"github.com/docvision/docvision-api/internal/utils"
)

// allowedExtensions is the fixed upload allow-list. Validation is by
// extension only; a file that lies about its extension fails later in the
// normalizer, not here.
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
	".tiff": true,
	".pdf":  true,
	".docx": true,
	".doc":  true,
}

type Validator struct {
	maxFileSize int64
}

func New(maxFileSize int64) *Validator {
	return &Validator{maxFileSize: maxFileSize}
}

// Validate checks the declared filename and size against the allow-list
// and the configured ceiling, returning the parsed UploadedFile. It is a
// pure check: no content sniffing, no side effects.
func (v *Validator) Validate(filename string, data []byte) (*models.UploadedFile, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	if !allowedExtensions[ext] {
		return nil, utils.NewUnsupportedFileTypeError(
			fmt.Sprintf("unsupported file type %q: allowed types are png, jpg, jpeg, gif, webp, bmp, tiff, pdf, docx, doc", ext))
	}

	if int64(len(data)) > v.maxFileSize {
		return nil, utils.NewFileTooLargeError(
			fmt.Sprintf("file size %d bytes exceeds the %d byte limit", len(data), v.maxFileSize))
	}

	if len(data) == 0 {
		return nil, utils.NewEmptyDocumentError("uploaded file is empty")
	}

	return &models.UploadedFile{
		Data:      data,
		Filename:  filename,
		Extension: ext,
		Size:      int64(len(data)),
	}, nil
}
