package services

import (
	"context"
	"time"

	"github.com/docvision/docvision-api/internal/analyzer"
	"github.com/docvision/docvision-api/internal/config"
	"github.com/docvision/docvision-api/internal/models"
	"github.com/docvision/docvision-api/internal/normalizer"
	"github.com/docvision/docvision-api/internal/prompt"
	"github.com/docvision/docvision-api/internal/utils"
	"github.com/docvision/docvision-api/internal/validator"
)

type AnalysisService interface {
	Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error)
}

// analysisService runs the five pipeline stages in order. Each stage is
// terminal on failure; nothing is retried and no partial result escapes.
type analysisService struct {
	validator  *validator.Validator
	normalizer *normalizer.Normalizer
	builder    *prompt.Builder
	analyzer   analyzer.Analyzer
	logger     *utils.Logger

	defaultLanguage models.ResponseLanguage
}

func NewService(cfg *config.Config, logger *utils.Logger) AnalysisService {
	visionAnalyzer := analyzer.NewVisionAnalyzer(analyzer.Options{
		APIKey:    cfg.VisionAPIKey,
		BaseURL:   cfg.VisionBaseURL,
		Model:     cfg.VisionModel,
		MaxTokens: cfg.VisionMaxTokens,
		Timeout:   cfg.RequestTimeout,
	}, logger)

	return &analysisService{
		validator: validator.New(cfg.MaxFileSize),
		normalizer: normalizer.New(
			cfg.MaxPDFPages,
			cfg.RenderDPI,
			cfg.MaxImageDimension,
			normalizer.NewPopplerRenderer(),
			logger,
		),
		builder:         prompt.NewBuilder(),
		analyzer:        visionAnalyzer,
		logger:          logger,
		defaultLanguage: models.ResponseLanguage(cfg.DefaultLanguage),
	}
}

func (s *analysisService) Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	language := req.Language
	if language == "" {
		language = s.defaultLanguage
	}

	file, err := s.validator.Validate(req.Filename, req.Data)
	if err != nil {
		s.logger.Warn("upload rejected",
			"filename", req.Filename,
			"size", len(req.Data),
			"error", err)
		return nil, err
	}

	doc, err := s.normalizer.Normalize(ctx, file)
	if err != nil {
		s.logger.Warn("normalization failed",
			"filename", file.Filename,
			"extension", file.Extension,
			"error", err)
		return nil, err
	}

	visionReq, err := s.builder.Build(doc, req.Mode, req.Query, language)
	if err != nil {
		return nil, err
	}

	s.logger.Info("starting analysis",
		"filename", file.Filename,
		"mode", req.Mode,
		"source_kind", doc.Kind,
		"blocks", len(doc.Blocks))

	text, err := s.analyzer.Analyze(ctx, visionReq)
	if err != nil {
		s.logger.Error("vision call failed",
			"filename", file.Filename,
			"mode", req.Mode,
			"error", err)
		return nil, err
	}

	result := s.shapeResult(req, doc, language, text)

	s.logger.Info("analysis completed",
		"filename", file.Filename,
		"mode", req.Mode,
		"page_count", result.PageCount,
		"result_length", len(text))

	return result, nil
}

// shapeResult wraps the model's raw text with the request metadata. The
// text is passed through verbatim; for multi-page PDFs any page
// delimiting is whatever the prompt convinced the model to emit.
func (s *analysisService) shapeResult(req *models.AnalysisRequest, doc *models.NormalizedDocument, language models.ResponseLanguage, text string) *models.AnalysisResult {
	result := &models.AnalysisResult{
		Mode:       req.Mode,
		Filename:   req.Filename,
		SourceKind: doc.Kind,
		PageCount:  doc.PageCount,
		Result:     text,
		Language:   string(language),
		Model:      s.analyzer.Model(),
		AnalyzedAt: time.Now().UTC(),
	}
	if req.Mode == models.ModeCustomQuery {
		result.Query = req.Query
	}
	return result
}
