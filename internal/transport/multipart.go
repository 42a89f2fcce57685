package transport

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// Multipart describes a form with one file part.
type Multipart struct {
	Field       string
	FileName    string
	ContentType string
	Content     io.Reader
	Fields      map[string]string
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (m Multipart) encode() (io.Reader, string, error) {
	if m.Content == nil {
		return nil, "", fmt.Errorf("multipart %q: no content", m.Field)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for key, value := range m.Fields {
		if err := w.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", key, err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(m.Field), quoteEscaper.Replace(m.FileName)))
	header.Set("Content-Type", m.ContentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create part: %w", err)
	}
	if _, err := io.Copy(part, m.Content); err != nil {
		return nil, "", fmt.Errorf("copy %s: %w", m.FileName, err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}
