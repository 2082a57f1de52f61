package httpx

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
)

// MaxUploadSize - предел multipart-формы с файлом
const MaxUploadSize = 32 << 20

// Form - поля запроса из multipart-формы или JSON-объекта
type Form struct {
	Values map[string]string
	File   multipart.File
	Header *multipart.FileHeader
}

func (f *Form) Get(name string) string {
	return strings.TrimSpace(f.Values[name])
}

// Flag - булево поле; "on" из HTML-чекбокса тоже считается true
func (f *Form) Flag(name string, fallback bool) bool {
	raw := f.Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return raw == "on"
	}
	return v
}

func (f *Form) ContentType() string {
	if f.Header == nil {
		return ""
	}
	return f.Header.Header.Get("Content-Type")
}

func (f *Form) Close() {
	if f.File != nil {
		f.File.Close()
	}
}

// ReadForm принимает multipart/form-data с необязательным файлом fileField или JSON
func ReadForm(r *http.Request, fileField string) (*Form, error) {
	f := &Form{Values: map[string]string{}}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
			return nil, err
		}
		for k, v := range r.MultipartForm.Value {
			if len(v) > 0 {
				f.Values[k] = v[0]
			}
		}
		file, header, err := r.FormFile(fileField)
		if err == nil {
			f.File, f.Header = file, header
		} else if !errors.Is(err, http.ErrMissingFile) {
			return nil, err
		}
		return f, nil
	}

	var raw map[string]interface{}
	if err := DecodeJSON(r, &raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			f.Values[k] = val
		case bool:
			f.Values[k] = strconv.FormatBool(val)
		case float64:
			f.Values[k] = strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return f, nil
}
