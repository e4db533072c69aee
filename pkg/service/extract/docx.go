package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/fitlens-dev/fitlens/pkg/domain/model/errs"
	"github.com/fitlens-dev/fitlens/pkg/utils/safe"
	"github.com/m-mizutani/goerr/v2"
)

// A .docx file is a zip archive; the body text lives in word/document.xml
// as <w:t> runs grouped into <w:p> paragraphs.
func extractDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", goerr.Wrap(err, "failed to open docx archive", goerr.T(errs.TagValidation))
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", goerr.New("docx has no word/document.xml", goerr.T(errs.TagValidation))
	}

	rc, err := doc.Open()
	if err != nil {
		return "", goerr.Wrap(err, "failed to open document.xml")
	}
	defer safe.Close(context.Background(), rc)

	return decodeDocumentXML(rc)
}

func decodeDocumentXML(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var buf strings.Builder
	var inText bool
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", goerr.Wrap(err, "malformed document.xml", goerr.T(errs.TagValidation))
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				buf.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}

	return buf.String(), nil
}
