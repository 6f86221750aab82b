package coursesapi

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"coursecraft/internal/domain/services"
)

type formField struct {
	name  string
	value string
}

// doMultipart streams fields and an optional file part without buffering
// the file in memory.
func (c *Client) doMultipart(ctx context.Context, method, endpoint string, fields []formField, fileField string, file services.UploadFile, out any) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		// The transport closes pr on failure, which unblocks any write here
		pw.CloseWithError(writeForm(mw, fields, fileField, file))
	}()

	req, err := c.newRequest(ctx, method, endpoint, pr)
	if err != nil {
		_ = pr.CloseWithError(err)
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, out)
}

func writeForm(mw *multipart.Writer, fields []formField, fileField string, file services.UploadFile) error {
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return fmt.Errorf("failed to write %s field: %w", f.name, err)
		}
	}

	if file != nil {
		part, err := mw.CreatePart(filePartHeader(fileField, file))
		if err != nil {
			return fmt.Errorf("failed to create form file: %w", err)
		}
		src, err := file.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", file.Name(), err)
		}
		_, err = io.Copy(part, src)
		_ = src.Close()
		if err != nil {
			return fmt.Errorf("failed to copy file content: %w", err)
		}
	}

	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// filePartHeader is CreateFormFile with the file's real content type
func filePartHeader(field string, file services.UploadFile) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(file.Name())))
	ct := file.ContentType()
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	return h
}
