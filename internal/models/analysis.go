package models

import (
	"time"
)

// BlockType discriminates the ContentBlock variants.
type BlockType string

const (
	BlockImage BlockType = "image"
	BlockText  BlockType = "text"
)

// SourceKind describes what category of file the blocks came from.
type SourceKind string

const (
	SourceImage    SourceKind = "image"
	SourcePDFPages SourceKind = "pdf_pages"
	SourceDocText  SourceKind = "doc_text"
)

// ContentBlock is one unit of input for the vision model: either a
// base64-encoded image or plain text. Exactly one variant is populated,
// selected by Type.
type ContentBlock struct {
	Type BlockType

	// Image variant
	MimeType   string
	Base64Data string

	// Text variant
	Text string

	// Page is the 1-indexed page number within the source document.
	Page int
	// Source is the original filename the block was produced from.
	Source string
}

// AnalysisMode selects the prompt template sent with the content blocks.
type AnalysisMode string

const (
	ModeFullAnalysis AnalysisMode = "analyze"
	ModeExtractText  AnalysisMode = "extract-text"
	ModeDescribe     AnalysisMode = "describe"
	ModeCustomQuery  AnalysisMode = "query"
)

// ResponseLanguage is a free-text hint injected into the prompt. Swedish
// and English are the documented values; anything else passes through.
type ResponseLanguage string

const (
	LanguageSwedish ResponseLanguage = "swedish"
	LanguageEnglish ResponseLanguage = "english"
)

type UploadedFile struct {
	Data      []byte
	Filename  string
	Extension string
	Size      int64
}

// AnalysisRequest carries one upload through the pipeline. It lives for
// the duration of a single request and is never stored.
type AnalysisRequest struct {
	Filename string
	Data     []byte
	Mode     AnalysisMode
	Query    string
	Language ResponseLanguage
}

// NormalizedDocument is the Normalizer's output: an ordered block
// sequence plus the detected source kind. PageCount is the number of
// blocks actually produced, after any page-cap truncation.
type NormalizedDocument struct {
	Kind      SourceKind
	Blocks    []ContentBlock
	PageCount int
}

// VisionRequest is the assembled outbound payload: the content blocks in
// original order followed by a single instruction. The content-before-
// instruction ordering is a fixed convention and must be preserved.
type VisionRequest struct {
	Blocks      []ContentBlock
	Instruction string
}

// AnalysisResult is the response body for a successful request. Built
// once by the response shaper and not mutated afterwards.
type AnalysisResult struct {
	Mode       AnalysisMode `json:"mode"`
	Filename   string       `json:"filename"`
	SourceKind SourceKind   `json:"source_kind"`
	PageCount  int          `json:"page_count"`
	Result     string       `json:"result"`
	Query      string       `json:"query,omitempty"`
	Language   string       `json:"language,omitempty"`
	Model      string       `json:"model"`
	AnalyzedAt time.Time    `json:"analyzed_at"`
	Error      *ErrorBody   `json:"error"`
}

// ErrorBody is the error half of the response envelope.
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ErrorResponse is returned whenever any pipeline stage rejects the
// request. No partial result is ever attached.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
