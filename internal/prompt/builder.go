// Package prompt assembles the outbound vision request: the normalized
// content blocks in their original order followed by one instruction
// block chosen from fixed per-mode templates. Content before instruction
// is a deliberate ordering convention and must not change.
package prompt

import (
	"fmt"
	"strings"

	"github.com/docvision/docvision-api/internal/models"
	"github.com/docvision/docvision-api/internal/utils"
)

// languageNames maps the documented ResponseLanguage values to the name
// used inside the prompt. Unknown values pass through verbatim: the
// language selector is a free-text hint, not a closed enum.
var languageNames = map[models.ResponseLanguage]string{
	models.LanguageSwedish: "Swedish",
	models.LanguageEnglish: "English",
}

type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build produces the request payload for the given mode. The query is
// required iff mode is ModeCustomQuery.
func (b *Builder) Build(doc *models.NormalizedDocument, mode models.AnalysisMode, query string, language models.ResponseLanguage) (*models.VisionRequest, error) {
	instruction, err := instructionFor(mode, query, language)
	if err != nil {
		return nil, err
	}

	return &models.VisionRequest{
		Blocks:      doc.Blocks,
		Instruction: instruction,
	}, nil
}

func instructionFor(mode models.AnalysisMode, query string, language models.ResponseLanguage) (string, error) {
	lang := languageName(language)

	switch mode {
	case models.ModeFullAnalysis:
		return fmt.Sprintf("Analyze the provided image(s)/document(s). Respond in %s. "+
			"Do the following:\n"+
			"1. **Text extraction**: Extract all visible text, preserving structure.\n"+
			"2. **Image description**: Describe what you see, including objects, layout, colors and people.\n"+
			"3. **Document type**: Identify the type of document (invoice, receipt, letter, photo, etc.).\n"+
			"4. **Key information**: Highlight the most important information found.\n"+
			"5. **Summary**: Provide a brief summary of the content.", lang), nil

	case models.ModeExtractText:
		return "Extract ALL text visible in the image(s). " +
			"Preserve the original layout and structure as much as possible. " +
			"If there are tables, format them clearly. " +
			"If text is in multiple languages, note the language for each section. " +
			"If there are multiple pages, begin the text of each page with a line reading '--- Page N ---'. " +
			"Return ONLY the extracted text, no commentary.", nil

	case models.ModeDescribe:
		return fmt.Sprintf("Describe in detail what you see in the image(s). Respond in %s. "+
			"Include: objects, people, text, colors, layout, and any notable details. "+
			"If there are multiple pages/images, describe each one separately.", lang), nil

	case models.ModeCustomQuery:
		if strings.TrimSpace(query) == "" {
			return "", utils.NewMissingQueryError("query mode requires a non-empty question")
		}
		return fmt.Sprintf("Respond in %s.\n\n%s", lang, query), nil

	default:
		return "", utils.NewBadRequestError(fmt.Sprintf("unknown analysis mode %q", mode))
	}
}

func languageName(language models.ResponseLanguage) string {
	if name, ok := languageNames[language]; ok {
		return name
	}
	if language == "" {
		return languageNames[models.LanguageSwedish]
	}
	return string(language)
}
