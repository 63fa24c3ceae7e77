package normalizer

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/docvision/docvision-api/internal/models"
	"github.com/docvision/docvision-api/internal/utils"
)

type wordDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    wordBody `xml:"body"`
}

type wordBody struct {
	Paragraphs []wordParagraph `xml:"p"`
	Tables     []wordTable     `xml:"tbl"`
}

type wordParagraph struct {
	Runs []wordRun `xml:"r"`
}

type wordRun struct {
	Text string `xml:"t"`
}

type wordTable struct {
	Rows []wordTableRow `xml:"tr"`
}

type wordTableRow struct {
	Cells []wordTableCell `xml:"tc"`
}

type wordTableCell struct {
	Paragraphs []wordParagraph `xml:"p"`
}

// normalizeWordDocument extracts the document text into a single Text
// block. DOCX is parsed properly; legacy .doc is best-effort (see doc.go).
func (n *Normalizer) normalizeWordDocument(file *models.UploadedFile) (*models.NormalizedDocument, error) {
	text, err := extractDOCX(file.Data)
	if err != nil && file.Extension == ".doc" {
		// Not a zip archive, so a genuine legacy Word file or something
		// mislabeled. Fall back to text decoding.
		text, err = extractLegacyDoc(file.Data)
	}
	if err != nil {
		return nil, utils.NewDocumentCorruptError(
			fmt.Sprintf("cannot read %s document", file.Extension), err)
	}

	if strings.TrimSpace(text) == "" {
		return nil, utils.NewEmptyDocumentError("document contains no extractable text")
	}

	block := models.ContentBlock{
		Type:   models.BlockText,
		Text:   text,
		Page:   1,
		Source: file.Filename,
	}

	n.logger.Debug("normalized word document",
		"filename", file.Filename,
		"text_length", len(text))

	return &models.NormalizedDocument{
		Kind:      models.SourceDocText,
		Blocks:    []models.ContentBlock{block},
		PageCount: 1,
	}, nil
}

// extractDOCX reads word/document.xml out of the DOCX archive and
// concatenates paragraph text in document order, followed by table rows
// with cells joined by " | ".
func extractDOCX(data []byte) (string, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX as ZIP: %w", err)
	}

	var documentFile *zip.File
	for _, f := range zipReader.File {
		if f.Name == "word/document.xml" {
			documentFile = f
			break
		}
	}
	if documentFile == nil {
		return "", fmt.Errorf("document.xml not found in DOCX")
	}

	xmlFile, err := documentFile.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer xmlFile.Close()

	xmlData, err := io.ReadAll(xmlFile)
	if err != nil {
		return "", fmt.Errorf("failed to read document.xml: %w", err)
	}

	var doc wordDocument
	if err := xml.Unmarshal(xmlData, &doc); err != nil {
		return "", fmt.Errorf("failed to parse document.xml: %w", err)
	}

	var lines []string
	for _, para := range doc.Body.Paragraphs {
		if text := paragraphText(para); text != "" {
			lines = append(lines, text)
		}
	}

	for _, table := range doc.Body.Tables {
		for _, row := range table.Rows {
			var cells []string
			for _, cell := range row.Cells {
				var cellParts []string
				for _, para := range cell.Paragraphs {
					if text := paragraphText(para); text != "" {
						cellParts = append(cellParts, text)
					}
				}
				if len(cellParts) > 0 {
					cells = append(cells, strings.Join(cellParts, " "))
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, " | "))
			}
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func paragraphText(para wordParagraph) string {
	var b strings.Builder
	for _, run := range para.Runs {
		b.WriteString(run.Text)
	}
	return strings.TrimSpace(b.String())
}
