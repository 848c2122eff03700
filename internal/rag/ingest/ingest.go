package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/pkg/logger_i"
)

func getDocType(docPath string) commonModels.DocType {
	ext := strings.ToLower(filepath.Ext(docPath))
	switch ext {
	case ".pdf":
		return commonModels.PDF
	case ".docx", ".rtf", ".odt":
		return commonModels.DOCX
	case ".txt", ".md":
		return commonModels.TXT
	default:
		return commonModels.ERR
	}
}

// Extension returns the lower-case file extension without the dot.
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// LoadDocument returns the document's pages in order. Page numbers start at 1.
// Corrupt input fails with ErrUnreadableDocument, unknown extensions with
// ErrUnsupportedFileType.
func LoadDocument(path string) ([]commonModels.RawPage, error) {
	logger := logger_i.NewLogger("document_loader")
	docType := getDocType(path)
	logger.Debug("loading document", "path", path, "type", docType)

	var (
		pages []commonModels.RawPage
		err   error
	)
	switch docType {
	case commonModels.PDF:
		pages, err = extractPDF(path, logger)
	case commonModels.DOCX, commonModels.TXT:
		pages, err = extractdocxTxtRtf(path, logger)
	default:
		return nil, fmt.Errorf("%w: %s", commonModels.ErrUnsupportedFileType, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", commonModels.ErrUnreadableDocument, err)
	}
	return pages, nil
}
