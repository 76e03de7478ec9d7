package pdf

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/a3tai/mcp-sondage-reader/internal/pdf/security"
	"github.com/a3tai/mcp-sondage-reader/internal/sondage"
)

// Service handles PDF file operations by orchestrating the validator, the
// token reader and the extractor
type Service struct {
	maxFileSize   int64
	validator     *Validator
	extractor     *sondage.Extractor
	pathValidator *security.PathValidator
	serverInfo    *ServerInfo
	logger        *slog.Logger
}

// NewService creates a new PDF service. An empty configuredDirectory
// leaves paths unrestricted.
func NewService(maxFileSize int64, configuredDirectory string, settings sondage.Settings, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	extractor, err := sondage.NewExtractor(settings, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create extractor: %w", err)
	}

	s := &Service{
		maxFileSize:   maxFileSize,
		validator:     NewValidator(maxFileSize),
		extractor:     extractor,
		pathValidator: security.NewPathValidator(configuredDirectory),
		logger:        logger,
	}
	s.serverInfo = NewServerInfo(s)
	return s, nil
}

// ResolvePath turns a user supplied path into an absolute path, relative
// paths being taken from the configured directory
func (s *Service) ResolvePath(path string) (string, error) {
	resolved, err := s.pathValidator.NormalizePath(path)
	if err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	return resolved, nil
}

// ValidateFile performs validation on a PDF file
func (s *Service) ValidateFile(req ValidateFileRequest) (*ValidateFileResult, error) {
	path, err := s.ResolvePath(req.Path)
	if err != nil {
		return nil, err
	}
	req.Path = path
	return s.validator.ValidateFile(req)
}

// ExtractSondages validates the report, then runs the extraction over all
// its pages into store. New boreholes get their depth ladder from depth.
func (s *Service) ExtractSondages(ctx context.Context, req ExtractRequest, store *sondage.Store, depth sondage.DepthSource) (*ExtractResult, error) {
	validation, err := s.ValidateFile(ValidateFileRequest(req))
	if err != nil {
		return nil, err
	}
	if !validation.Valid {
		serr := sondage.NewError(sondage.ErrorTypeMalformedDocument, validation.Message)
		return nil, serr
	}

	doc, err := OpenDocument(validation.Path)
	if err != nil {
		serr := sondage.NewError(sondage.ErrorTypeMalformedDocument, "cannot open document")
		serr.Err = err
		return nil, serr
	}
	defer doc.Close()

	s.logger.Info("extracting sondages", "path", validation.Path, "pages", validation.Pages)

	report, err := s.extractor.Run(ctx, doc, store, depth)
	if err != nil {
		return nil, err
	}

	return &ExtractResult{Path: validation.Path, Report: report}, nil
}

// Settings returns the extraction settings
func (s *Service) Settings() sondage.Settings {
	return s.extractor.Settings()
}

// NewStore creates an empty store for the configured keywords
func (s *Service) NewStore() *sondage.Store {
	return sondage.NewStore(s.extractor.Settings().Labels(), s.logger)
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// ConfiguredDirectory returns the directory paths are confined to
func (s *Service) ConfiguredDirectory() string {
	return s.pathValidator.GetConfiguredDirectory()
}

// ServerInfo returns server information, the reports of the configured
// directory and usage guidance
func (s *Service) ServerInfo(ctx context.Context, serverName, version string) (*ServerInfoResult, error) {
	return s.serverInfo.GetServerInfo(ctx, serverName, version)
}
