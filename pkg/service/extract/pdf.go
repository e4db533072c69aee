package extract

import (
	"bytes"
	"strings"

	"github.com/fitlens-dev/fitlens/pkg/domain/model/errs"
	"github.com/m-mizutani/goerr/v2"
	"rsc.io/pdf"
)

func extractPDF(data []byte) (string, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", goerr.Wrap(err, "failed to open PDF", goerr.T(errs.TagValidation))
	}

	var parts []string
	for i := 1; i <= doc.NumPage(); i++ {
		p := doc.Page(i)
		if p.V.IsNull() {
			continue
		}
		content := p.Content()
		for _, text := range content.Text {
			if strings.TrimSpace(text.S) == "" {
				continue
			}
			parts = append(parts, text.S)
		}
	}

	return strings.Join(parts, " "), nil
}
