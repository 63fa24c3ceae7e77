package normalizer

import (
	"context"
	"fmt"

	"github.com/docvision/docvision-api/internal/models"
	"github.com/docvision/docvision-api/internal/utils"
)

// RasterRenderer renders the first maxPages pages of a PDF into PNG
// images, in page order. Implemented by PopplerRenderer in production and
// stubbed in tests.
type RasterRenderer interface {
	RenderPages(ctx context.Context, data []byte, maxPages, dpi int) ([][]byte, error)
}

// Normalizer converts a validated upload into an ordered sequence of
// content blocks ready for the vision model.
type Normalizer struct {
	maxPages int
	dpi      int
	maxDim   int
	raster   RasterRenderer
	logger   *utils.Logger
}

func New(maxPages, dpi, maxDim int, raster RasterRenderer, logger *utils.Logger) *Normalizer {
	return &Normalizer{
		maxPages: maxPages,
		dpi:      dpi,
		maxDim:   maxDim,
		raster:   raster,
		logger:   logger,
	}
}

// Normalize dispatches on the file's extension category. The validator
// has already restricted the extension to the allow-list, so an unknown
// extension here is a programming error, not user input.
func (n *Normalizer) Normalize(ctx context.Context, file *models.UploadedFile) (*models.NormalizedDocument, error) {
	if len(file.Data) == 0 {
		return nil, utils.NewEmptyDocumentError("uploaded file is empty")
	}

	switch file.Extension {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tiff":
		return n.normalizeImage(file)
	case ".pdf":
		return n.normalizePDF(ctx, file)
	case ".docx", ".doc":
		return n.normalizeWordDocument(file)
	default:
		return nil, utils.NewInternalError(fmt.Sprintf("normalizer received unvalidated extension %q", file.Extension))
	}
}
