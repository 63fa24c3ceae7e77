package normalizer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/require"

	"github.com/docvision/docvision-api/internal/models"
	"github.com/docvision/docvision-api/internal/utils"
)

// stubRenderer stands in for poppler so the page-cap behavior can be
// tested without the binary installed.
type stubRenderer struct {
	pages       [][]byte
	err         error
	gotMaxPages int
	gotDPI      int
}

func (s *stubRenderer) RenderPages(_ context.Context, _ []byte, maxPages, dpi int) ([][]byte, error) {
	s.gotMaxPages = maxPages
	s.gotDPI = dpi
	if s.err != nil {
		return nil, s.err
	}
	if len(s.pages) > maxPages {
		return s.pages[:maxPages], nil
	}
	return s.pages, nil
}

func newTestNormalizer(maxPages int, raster RasterRenderer) *Normalizer {
	return New(maxPages, 72, 1568, raster, utils.NewLogger("error"))
}

// pngBytes generates a small solid-color PNG.
func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// newTestPDF generates a well-formed PDF with the given number of pages.
// Generating avoids brittle handcrafted bytes and is guaranteed parsable
// by ledongthuc/pdf.
func newTestPDF(t *testing.T, pages int) []byte {
	t.Helper()

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetFont("Helvetica", "", 12)
	for i := 0; i < pages; i++ {
		doc.AddPage()
		doc.Cell(40, 10, "Hello World")
	}

	var buf bytes.Buffer
	require.NoError(t, doc.Output(&buf))
	return buf.Bytes()
}

func upload(filename, ext string, data []byte) *models.UploadedFile {
	return &models.UploadedFile{
		Data:      data,
		Filename:  filename,
		Extension: ext,
		Size:      int64(len(data)),
	}
}

func TestNormalizePDFCapsPageCount(t *testing.T) {
	page := pngBytes(t, 50, 70)
	raster := &stubRenderer{pages: [][]byte{page, page, page}}
	n := newTestNormalizer(2, raster)

	doc, err := n.Normalize(context.Background(), upload("report.pdf", ".pdf", newTestPDF(t, 3)))
	require.NoError(t, err)

	require.Equal(t, models.SourcePDFPages, doc.Kind)
	require.Equal(t, 2, doc.PageCount)
	require.Len(t, doc.Blocks, 2)
	require.Equal(t, 2, raster.gotMaxPages)

	for i, block := range doc.Blocks {
		require.Equal(t, models.BlockImage, block.Type)
		require.Equal(t, "image/png", block.MimeType)
		require.Equal(t, i+1, block.Page)
		require.Equal(t, "report.pdf", block.Source)
		require.NotEmpty(t, block.Base64Data)
	}
}

func TestNormalizePDFBelowCapRendersAllPages(t *testing.T) {
	page := pngBytes(t, 50, 70)
	raster := &stubRenderer{pages: [][]byte{page, page}}
	n := newTestNormalizer(10, raster)

	doc, err := n.Normalize(context.Background(), upload("invoice.pdf", ".pdf", newTestPDF(t, 2)))
	require.NoError(t, err)

	require.Equal(t, 2, doc.PageCount)
	require.Equal(t, 2, raster.gotMaxPages)
}

func TestNormalizePDFCorruptFile(t *testing.T) {
	n := newTestNormalizer(2, &stubRenderer{})

	_, err := n.Normalize(context.Background(), upload("broken.pdf", ".pdf", []byte("this is not a pdf")))
	require.Error(t, err)

	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, utils.KindDocumentCorrupt, appErr.Kind)
}

func TestNormalizePDFRenderFailure(t *testing.T) {
	raster := &stubRenderer{err: errors.New("pdftoppm failed")}
	n := newTestNormalizer(2, raster)

	_, err := n.Normalize(context.Background(), upload("report.pdf", ".pdf", newTestPDF(t, 1)))
	require.Error(t, err)

	appErr, ok := utils.AsAppError(err)
	require.True(t, ok)
	require.Equal(t, utils.KindDocumentCorrupt, appErr.Kind)
}

func TestNormalizeEmptyFile(t *testing.T) {
	n := newTestNormalizer(2, &stubRenderer{})

	for _, ext := range []string{".pdf", ".png", ".docx"} {
		_, err := n.Normalize(context.Background(), upload("empty"+ext, ext, nil))
		require.Error(t, err)

		appErr, ok := utils.AsAppError(err)
		require.True(t, ok)
		require.Equal(t, utils.KindEmptyDocument, appErr.Kind)
	}
}
