package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/sales-backend/internal/usecase"
	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
)

const (
	dateLayout      = "2006-01-02"
	maxJSONBodySize = 1 << 20
)

// ErrorResponse — тело ответа с ошибкой. Code — стабильная категория ошибки.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToHTTPResponse переводит ошибку usecase в HTTP-статус и тело ответа.
func ToHTTPResponse(err error) (int, ErrorResponse) {
	kind := e.KindOf(err)
	resp := ErrorResponse{Error: e.Message(err), Code: string(kind)}

	switch kind {
	case e.KindInvalidRequest, e.KindInsufficientStock:
		return http.StatusBadRequest, resp
	case e.KindNotFound:
		return http.StatusNotFound, resp
	case e.KindForbidden:
		return http.StatusForbidden, resp
	case e.KindInvalidState:
		return http.StatusConflict, resp
	case e.KindUnauthenticated:
		return http.StatusUnauthorized, resp
	default:
		return http.StatusInternalServerError, resp
	}
}

// WriteError пишет ответ с ошибкой. 4xx логируются как warn, 5xx как error.
func WriteError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	code, resp := ToHTTPResponse(err)
	if code >= http.StatusInternalServerError {
		log.Errorf(err, "%s %s: %d", r.Method, r.URL.Path, code)
	} else {
		log.Warnf("%s %s: %d %v", r.Method, r.URL.Path, code, err)
	}

	WriteSuccess(w, code, resp)
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// decodeJSON читает тело запроса в dst. Пустое тело допустимо только при allowEmpty.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return e.Wrap(err.Error(), e.ErrMalformedBody)
	}

	return nil
}

func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, e.Wrap(name, e.ErrInvalidID)
	}

	return id, nil
}

// parseDateQuery разбирает дату YYYY-MM-DD. Отсутствующий параметр даёт nil.
func parseDateQuery(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}

	t, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		return nil, e.Wrap(name, e.ErrMalformedBody)
	}

	return &t, nil
}

func parseIntQuery(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, e.Wrap(name, e.ErrMalformedBody)
	}

	return v, nil
}

func parseOptionalIDQuery(r *http.Request, name string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, e.Wrap(name, e.ErrInvalidID)
	}

	return &id, nil
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return e.Wrap(whereami.WhereAmI(), e.ErrFileTooLarge)
		}
		return e.Wrap(err.Error(), e.ErrMalformedBody)
	}

	return nil
}

// parseImage читает единственный файл поля image. MIME-тип определяется по содержимому.
func parseImage(form *multipart.Form, maxSize int64) (*usecase.ProductImage, error) {
	files := form.File["image"]
	if len(files) == 0 {
		return nil, e.ErrNoImage
	}

	data, mimeType, err := readFile(files[0], maxSize)
	if err != nil {
		return nil, err
	}

	return usecase.NewProductImage(data, mimeType, int64(len(data)), files[0].Filename), nil
}

func readFile(fh *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	if fh.Size > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, "", e.Wrap(whereami.WhereAmI(), err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxSize+1))
	if err != nil {
		return nil, "", e.Wrap(whereami.WhereAmI(), err)
	}
	if int64(len(data)) > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}
	if len(data) == 0 {
		return nil, "", e.ErrNoImage
	}

	mimeType := http.DetectContentType(data[:min(len(data), 512)])
	return data, mimeType, nil
}
