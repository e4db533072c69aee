package extract

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/fitlens-dev/fitlens/pkg/domain/interfaces"
	"github.com/fitlens-dev/fitlens/pkg/domain/model/errs"
	"github.com/fitlens-dev/fitlens/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// Service extracts plain text from uploaded documents. Only the file
// extension is consulted to pick a decoder.
type Service struct{}

var _ interfaces.Extractor = &Service{}

func New() *Service {
	return &Service{}
}

func (s *Service) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var text string
	var err error
	switch ext {
	case ".txt":
		text, err = extractTxt(data)
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx":
		text, err = extractDocx(data)
	default:
		return "", goerr.New("unsupported file type, use .txt, .pdf or .docx",
			goerr.V("extension", ext), goerr.T(errs.TagValidation))
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", goerr.New("no extractable text in file (scanned document?)",
			goerr.V("filename", filename), goerr.T(errs.TagValidation))
	}

	logging.From(ctx).Debug("extracted text from upload",
		"filename", filename, "extension", ext, "text_length", len(text))

	return text, nil
}

func extractTxt(data []byte) (string, error) {
	data = stripBOM(data)
	if !utf8.Valid(data) {
		return "", goerr.New("text file is not valid UTF-8", goerr.T(errs.TagValidation))
	}
	return string(data), nil
}

func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
