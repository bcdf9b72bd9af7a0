package uploads

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/goliatone/go-formblocks/pkg/attachment"
	"github.com/goliatone/go-formblocks/pkg/attachment/store"
)

var (
	ErrMissingStore = errors.New("uploads: store is not configured")
	ErrNoFiles      = errors.New("uploads: no files in request")
	ErrSingleFile   = errors.New("uploads: field accepts a single file")
)

type HTTPError interface {
	error
	StatusCode() int
}

type StatusError struct {
	Code int
	Err  error
}

func (e StatusError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e StatusError) Unwrap() error { return e.Err }

func (e StatusError) StatusCode() int {
	if e.Code <= 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// Upload describes one stored file in the response.
type Upload struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	MediaType string `json:"mediaType"`
	URL       string `json:"url,omitempty"`
}

type uploadResponse struct {
	Data []Upload `json:"data"`
}

type validationResponse struct {
	Error string            `json:"error"`
	Rule  attachment.Result `json:"rule"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler builds a net/http handler with default options plus any overrides.
func Handler(fns ...OptionFn) http.Handler {
	return NewHandler(fns...)
}

func NewHandler(fns ...OptionFn) http.Handler {
	opts := NewOptions(fns...)
	return HandlerWithOptions(opts)
}

// HandlerWithOptions builds a net/http handler from a pre-constructed Options value.
func HandlerWithOptions(opts Options) http.Handler {
	opts = NewOptions(func(o *Options) { *o = opts })
	logger := opts.Logger.With(zap.String("field", opts.FieldName))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		if opts.Guard != nil {
			if err := opts.Guard(r); err != nil {
				writeGuardError(w, err)
				return
			}
		}
		if opts.Store == nil {
			logger.Error("upload rejected", zap.Error(ErrMissingStore))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
			return
		}

		headers, err := readFiles(w, r, opts)
		if err != nil {
			code := http.StatusBadRequest
			var httpErr HTTPError
			if errors.As(err, &httpErr) {
				code = httpErr.StatusCode()
			}
			logger.Debug("upload rejected", zap.Error(err))
			writeJSON(w, code, errorResponse{Error: err.Error()})
			return
		}

		files := make([]attachment.File, len(headers))
		for i, fh := range headers {
			mediaType, err := sniff(fh)
			if err != nil {
				logger.Error("sniff upload", zap.String("name", fh.Filename), zap.Error(err))
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable upload"})
				return
			}
			files[i] = attachment.File{Name: fh.Filename, Size: fh.Size, MediaType: mediaType}
		}

		if result := attachment.Validate(files, opts.Constraints); result != attachment.Valid {
			message := opts.Messenger.Message(result, opts.Constraints)
			logger.Info("upload failed validation", zap.Stringer("rule", result), zap.Int("files", len(files)))
			writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Error: message, Rule: result})
			return
		}

		uploads := make([]Upload, 0, len(files))
		for i, fh := range headers {
			upload, err := persist(r, opts, fh, files[i])
			if err != nil {
				logger.Error("store upload", zap.String("name", fh.Filename), zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
				return
			}
			uploads = append(uploads, upload)
		}

		logger.Info("files uploaded", zap.Int("files", len(uploads)))
		writeJSON(w, http.StatusCreated, uploadResponse{Data: uploads})
	})
}

func readFiles(w http.ResponseWriter, r *http.Request, opts Options) ([]*multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, opts.MaxRequestSize)
	if err := r.ParseMultipartForm(opts.MaxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, StatusError{Code: http.StatusRequestEntityTooLarge, Err: fmt.Errorf("uploads: request exceeds %d bytes", tooLarge.Limit)}
		}
		return nil, StatusError{Code: http.StatusBadRequest, Err: fmt.Errorf("uploads: parse multipart: %w", err)}
	}
	headers := r.MultipartForm.File[opts.FieldName]
	if len(headers) == 0 {
		return nil, StatusError{Code: http.StatusBadRequest, Err: ErrNoFiles}
	}
	if !opts.Constraints.Multiple && len(headers) > 1 {
		return nil, StatusError{Code: http.StatusBadRequest, Err: ErrSingleFile}
	}
	return headers, nil
}

func sniff(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	base, _, _ := strings.Cut(mtype.String(), ";")
	return strings.TrimSpace(base), nil
}

func persist(r *http.Request, opts Options, fh *multipart.FileHeader, file attachment.File) (Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return Upload{}, err
	}
	defer f.Close()

	stored, err := opts.Store.Put(r.Context(), store.Object{
		Key:       store.NewKey(opts.KeyPrefix, file.Name),
		Name:      file.Name,
		MediaType: file.MediaType,
		Size:      file.Size,
		Body:      f,
	})
	if err != nil {
		return Upload{}, err
	}
	return Upload{
		Key:       stored.Key,
		Name:      file.Name,
		Size:      file.Size,
		MediaType: file.MediaType,
		URL:       stored.URL,
	}, nil
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(payload)
}

func writeGuardError(w http.ResponseWriter, err error) {
	if w == nil {
		return
	}
	if err == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	code := http.StatusForbidden
	var httpErr HTTPError
	if errors.As(err, &httpErr) && httpErr != nil {
		code = httpErr.StatusCode()
		if code <= 0 {
			code = http.StatusForbidden
		}
	}
	http.Error(w, http.StatusText(code), code)
}
