package ingest

import (
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/DocRAG/internal/config"
	"github.com/akolanti/DocRAG/internal/domain/commonModels"
	"github.com/akolanti/DocRAG/pkg/logger_i"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

func extractPDF(path string, logger *logger_i.Logger) (pages []commonModels.RawPage, err error) {
	// the pdf reader panics on some malformed xref tables
	defer func() {
		if r := recover(); r != nil {
			logger.Error("pdf reader panicked", "path", path, "panic", r)
			pages, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, err := pdf.Open(path)
	if err != nil {
		logger.Error("failed opening of pdf file", "error", err)
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := f.NumPage()
	logger.Debug("extractPDF", "number of pages", numPages)
	for i := 1; i <= numPages; i++ {
		page := f.Page(i)
		if page.V.IsNull() {
			logger.Debug("extractPDF", "null page", i)
			continue
		}

		content, err := protectExtract(page, logger)
		if err != nil {
			// Log warning but continue with other pages
			logger.Warn("Error parsing page content", "page", i, "error", err)
			continue
		}

		pages = append(pages, commonModels.RawPage{
			Number:  i,
			Content: content,
		})
	}
	return pages, nil
}

// reads a .odt, .docx, .rtf or plaintext file as a single page
func extractdocxTxtRtf(path string, logger *logger_i.Logger) ([]commonModels.RawPage, error) {
	text, err := cat.File(path)
	if err != nil {
		logger.Error("Error extracting content from doc", "error", err)
		return nil, fmt.Errorf("failed to extract document: %w", err)
	}

	//TODO: page tracking for docx needs a reader that understands page breaks
	return []commonModels.RawPage{
		{
			Number:  1,
			Content: text,
		},
	}, nil
}

func protectExtract(page pdf.Page, logger *logger_i.Logger) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{"", fmt.Errorf("page extraction panicked: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(config.PageExtractTimeout):
		logger.Error("pageExtract", "timeout")
		return "", errors.New("timeout")
	}
}
