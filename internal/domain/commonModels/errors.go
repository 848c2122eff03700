package commonModels

import "errors"

var (
	ErrDocumentNotFound   = errors.New("document not found")
	ErrNoDocumentIngested = errors.New("no document has been ingested")
	ErrDuplicateName      = errors.New("a document with this name already exists")
	ErrEmptyDocument      = errors.New("no extractable text in document")
	ErrUnreadableDocument = errors.New("document could not be read")
	ErrIndexNotFound      = errors.New("index not found")
	ErrEmbeddingMismatch  = errors.New("index was built with a different embedding model")

	ErrEmptyQuery          = errors.New("query cannot be empty")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// IsInputError reports whether err should be rejected to the caller before processing.
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyQuery) ||
		errors.Is(err, ErrUnsupportedFileType) ||
		errors.Is(err, ErrFileTooLarge) ||
		errors.Is(err, ErrDuplicateName) ||
		errors.Is(err, ErrEmptyDocument) ||
		errors.Is(err, ErrUnreadableDocument)
}

// IsNotFound reports whether err names a missing document.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDocumentNotFound) || errors.Is(err, ErrNoDocumentIngested)
}
