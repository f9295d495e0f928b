package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// Kind is the document format picked from the MIME type or file name.
type Kind string

const (
	KindText Kind = "text"
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var ErrUnsupported = errors.New("unsupported file type")

// ExtractionError reports a document that could not be turned into text.
type ExtractionError struct {
	Kind     Kind
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	name := e.Filename
	if name == "" {
		name = "document"
	}
	if e.Kind == "" {
		return fmt.Sprintf("extract %s: %v", name, e.Err)
	}
	return fmt.Sprintf("extract %s (%s): %v", name, e.Kind, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Detect picks the document kind, preferring the MIME type over the extension.
func Detect(mimeType, filename string) (Kind, bool) {
	mt := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch mt {
	case "application/pdf":
		return KindPDF, true
	case docxMIME:
		return KindDOCX, true
	case "text/plain", "text/markdown":
		return KindText, true
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF, true
	case ".docx":
		return KindDOCX, true
	case ".txt", ".md", ".text":
		return KindText, true
	}
	return "", false
}

// Text returns the plain text of an uploaded document with whitespace
// normalized line by line.
func Text(data []byte, mimeType, filename string) (string, error) {
	kind, ok := Detect(mimeType, filename)
	if !ok {
		return "", &ExtractionError{Filename: filename, Err: ErrUnsupported}
	}

	var (
		text string
		err  error
	)
	switch kind {
	case KindPDF:
		text, err = parsePDF(data)
	case KindDOCX:
		text, err = parseDOCX(data)
	default:
		if !utf8.Valid(data) {
			err = errors.New("text is not valid UTF-8")
		}
		text = string(data)
	}
	if err != nil {
		return "", &ExtractionError{Kind: kind, Filename: filename, Err: err}
	}

	text = normalizeWhitespace(text)
	if text == "" {
		return "", &ExtractionError{Kind: kind, Filename: filename, Err: errors.New("no extractable text")}
	}
	return text, nil
}

func parseDOCX(raw []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open docx zip: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if strings.EqualFold(f.Name, "word/document.xml") {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.New("word/document.xml not found")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("open document.xml: %w", err)
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var b strings.Builder
	inText := false
	for {
		tok, tokenErr := decoder.Token()
		if tokenErr == io.EOF {
			break
		}
		if tokenErr != nil {
			return "", fmt.Errorf("decode document.xml: %w", tokenErr)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte(' ')
			case "br", "p":
				if b.Len() > 0 {
					b.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

func parsePDF(raw []byte) (text string, err error) {
	// The pdf reader panics on some malformed object streams.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	total := r.NumPage()
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, pageErr := p.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", errors.New("no extractable text found in pdf")
	}
	return b.String(), nil
}

func normalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
