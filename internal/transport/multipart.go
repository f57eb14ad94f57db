package transport

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"catalog-api/internal/service"
	"catalog-api/internal/storage"
)

// multipartMemory is how much of a multipart body is held in memory before
// spilling file parts to disk.
const multipartMemory = 8 << 20

// formRequest is a parsed multipart or urlencoded request
type formRequest struct {
	r        *http.Request
	maxBytes int64
	files    []multipart.File
}

// parseForm parses the body, capping it at maxBytes plus form overhead
func parseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) (*formRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}
	return &formRequest{r: r, maxBytes: maxBytes}, nil
}

// value returns the field and whether it was sent at all
func (f *formRequest) value(name string) (string, bool) {
	values, ok := f.r.PostForm[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

// optional returns a pointer to the field, nil when it was not sent
func (f *formRequest) optional(name string) *string {
	v, ok := f.value(name)
	if !ok {
		return nil
	}
	return &v
}

// image reads an uploaded image. It returns (nil, nil) when the field is
// absent and required is false. Field problems are returned as
// *service.ValidationError.
func (f *formRequest) image(name string, required bool) (*service.Upload, error) {
	file, header, err := f.r.FormFile(name)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			if required {
				return nil, service.NewValidationError(name, fmt.Sprintf("The %s field is required.", name))
			}
			return nil, nil
		}
		return nil, fmt.Errorf("read upload %s: %w", name, err)
	}
	f.files = append(f.files, file)

	if header.Size > f.maxBytes {
		return nil, service.NewValidationError(name,
			fmt.Sprintf("The %s field must not be greater than %d kilobytes.", name, f.maxBytes/1024))
	}

	contentType, err := storage.DetectImage(file, header.Filename)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) {
			return nil, service.NewValidationError(name,
				fmt.Sprintf("The %s field must be a file of type: %s.", name, strings.Join(storage.ImageExtensions, ", ")))
		}
		return nil, err
	}

	return &service.Upload{Filename: header.Filename, ContentType: contentType, Body: file}, nil
}

// Close releases uploaded files and temporary parts
func (f *formRequest) Close() {
	for _, file := range f.files {
		file.Close()
	}
	if f.r.MultipartForm != nil {
		f.r.MultipartForm.RemoveAll()
	}
}

// mergeFieldErrors joins validator output with an upload error
func mergeFieldErrors(fields map[string][]string, err error) (map[string][]string, error) {
	if err == nil {
		return fields, nil
	}
	var verr *service.ValidationError
	if !errors.As(err, &verr) {
		return nil, err
	}
	if fields == nil {
		fields = make(map[string][]string)
	}
	for k, v := range verr.Fields {
		fields[k] = append(fields[k], v...)
	}
	return fields, nil
}
