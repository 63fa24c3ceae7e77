package normalizer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/docvision/docvision-api/internal/models"
	"github.com/docvision/docvision-api/internal/utils"
)

// normalizePDF rasterizes up to maxPages pages into one Image block per
// page, in page order. Pages beyond the cap are dropped silently: that is
// the documented truncation policy, not an error.
func (n *Normalizer) normalizePDF(ctx context.Context, file *models.UploadedFile) (*models.NormalizedDocument, error) {
	reader, err := pdf.NewReader(bytes.NewReader(file.Data), file.Size)
	if err != nil {
		return nil, utils.NewDocumentCorruptError("file cannot be opened as a PDF", err)
	}

	totalPages := reader.NumPage()
	if totalPages == 0 {
		return nil, utils.NewEmptyDocumentError("PDF contains no pages")
	}

	pageCount := totalPages
	if pageCount > n.maxPages {
		n.logger.Info("truncating PDF to page cap",
			"filename", file.Filename,
			"total_pages", totalPages,
			"page_cap", n.maxPages)
		pageCount = n.maxPages
	}

	rendered, err := n.raster.RenderPages(ctx, file.Data, pageCount, n.dpi)
	if err != nil {
		return nil, utils.NewDocumentCorruptError("failed to rasterize PDF pages", err)
	}
	if len(rendered) == 0 {
		return nil, utils.NewEmptyDocumentError("PDF produced no renderable pages")
	}

	blocks := make([]models.ContentBlock, 0, len(rendered))
	for i, pageData := range rendered {
		// Rendered pages routinely exceed the provider's dimension
		// limit at 200 DPI.
		fitted, _, err := n.downscale(pageData, "image/png")
		if err != nil {
			return nil, utils.NewDocumentCorruptError(
				fmt.Sprintf("failed to process rendered page %d", i+1), err)
		}

		blocks = append(blocks, models.ContentBlock{
			Type:       models.BlockImage,
			MimeType:   "image/png",
			Base64Data: base64.StdEncoding.EncodeToString(fitted),
			Page:       i + 1,
			Source:     file.Filename,
		})
	}

	n.logger.Debug("normalized PDF",
		"filename", file.Filename,
		"total_pages", totalPages,
		"rendered_pages", len(blocks))

	return &models.NormalizedDocument{
		Kind:      models.SourcePDFPages,
		Blocks:    blocks,
		PageCount: len(blocks),
	}, nil
}

// PopplerRenderer rasterizes PDF pages with poppler's pdftoppm.
type PopplerRenderer struct{}

func NewPopplerRenderer() *PopplerRenderer {
	return &PopplerRenderer{}
}

func (r *PopplerRenderer) RenderPages(ctx context.Context, data []byte, maxPages, dpi int) ([][]byte, error) {
	if dpi <= 0 {
		dpi = 200
	}

	workDir, err := os.MkdirTemp("", "docvision-pdf-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	pdfPath := filepath.Join(workDir, "input.pdf")
	if err := os.WriteFile(pdfPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("write temp PDF: %w", err)
	}

	prefix := filepath.Join(workDir, "page")
	args := []string{
		"-png",
		"-r", strconv.Itoa(dpi),
		"-f", "1",
		"-l", strconv.Itoa(maxPages),
		pdfPath,
		prefix,
	}
	cmd := exec.CommandContext(ctx, "pdftoppm", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftoppm failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no rendered pages found")
	}
	sort.Slice(matches, func(i, j int) bool {
		return pageIndexFromName(matches[i]) < pageIndexFromName(matches[j])
	})

	pages := make([][]byte, 0, len(matches))
	for _, match := range matches {
		pageData, err := os.ReadFile(match)
		if err != nil {
			return nil, fmt.Errorf("read rendered page: %w", err)
		}
		pages = append(pages, pageData)
	}
	return pages, nil
}

// pageIndexFromName extracts the page number from a pdftoppm output name
// such as page-03.png. Unparseable names sort last.
func pageIndexFromName(name string) int {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	idx := strings.LastIndex(base, "-")
	if idx < 0 {
		return int(^uint(0) >> 1)
	}
	page, err := strconv.Atoi(base[idx+1:])
	if err != nil {
		return int(^uint(0) >> 1)
	}
	return page
}
