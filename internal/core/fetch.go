package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Step status values.
const (
	StepPending = "pending"
	StepSuccess = "success"
	StepFailed  = "failed"
)

// maxCollisionSuffix bounds the _N suffixes tried when a name is taken.
const maxCollisionSuffix = 1000

// Step represents a step in a fetch attempt.
type Step struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ProgressFunc is called as an attempt moves through its steps.
type ProgressFunc func(step, message string)

// FetchResult is the outcome of one fetch attempt. Success results carry
// Path and Bytes; failures carry Failure and its Kind.
type FetchResult struct {
	AttemptID  string      `json:"attempt_id"`
	URL        string      `json:"url"`
	Success    bool        `json:"success"`
	Filename   string      `json:"filename,omitempty"`
	NameSource NameSource  `json:"name_source,omitempty"`
	Path       string      `json:"path,omitempty"`
	Bytes      int64       `json:"bytes"`
	LargeFile  bool        `json:"large_file,omitempty"`
	Kind       FailureKind `json:"failure_kind,omitempty"`
	StatusCode int         `json:"status_code,omitempty"`
	Error      string      `json:"error,omitempty"`
	Steps      []Step      `json:"steps"`

	Failure *FetchError `json:"-"`
}

// ImageFetcherOptions configures an ImageFetcher.
type ImageFetcherOptions struct {
	// Logger receives structured attempt logs. Defaults to a no-op logger.
	Logger *zap.Logger

	// Resolver derives filenames. Defaults to NewResolver().
	Resolver *Resolver

	// NewAttemptID generates attempt identifiers. Defaults to uuid.NewString.
	NewAttemptID func() string
}

// ImageFetcher runs fetch-validate-save attempts.
type ImageFetcher struct {
	fetcher  Fetcher
	resolver *Resolver
	logger   *zap.Logger
	newID    func() string
}

// NewImageFetcher creates an ImageFetcher that issues requests through f.
func NewImageFetcher(f Fetcher, opts ImageFetcherOptions) *ImageFetcher {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Resolver == nil {
		opts.Resolver = NewResolver()
	}
	if opts.NewAttemptID == nil {
		opts.NewAttemptID = uuid.NewString
	}
	return &ImageFetcher{
		fetcher:  f,
		resolver: opts.Resolver,
		logger:   opts.Logger,
		newID:    opts.NewAttemptID,
	}
}

// attempt tracks the steps of a single Fetch call.
type attempt struct {
	result   *FetchResult
	progress ProgressFunc
	log      *zap.Logger
}

func (a *attempt) begin(name, message string) {
	a.progress(name, message)
	a.result.Steps = append(a.result.Steps, Step{Name: name, Status: StepPending})
	a.log.Debug(message, zap.String("step", name))
}

func (a *attempt) done(message string) {
	step := &a.result.Steps[len(a.result.Steps)-1]
	step.Status = StepSuccess
	step.Message = message
}

func (a *attempt) fail(err error) *FetchResult {
	fe := Classify(err)
	if n := len(a.result.Steps); n > 0 && a.result.Steps[n-1].Status == StepPending {
		a.result.Steps[n-1].Status = StepFailed
		a.result.Steps[n-1].Message = fe.Detail()
	}
	a.result.Success = false
	a.result.Failure = fe
	a.result.Kind = fe.Kind
	a.result.StatusCode = fe.StatusCode
	a.result.Error = fe.Error()
	a.log.Warn("fetch failed",
		zap.String("kind", string(fe.Kind)),
		zap.Int("status", fe.StatusCode),
		zap.Error(fe.Unwrap()),
	)
	return a.result
}

// Fetch performs one download attempt. It never returns an error: every
// failure is reported through FetchResult.Failure. No file is left behind
// by a failed attempt.
func (f *ImageFetcher) Fetch(ctx context.Context, req DownloadRequest, progress ProgressFunc) *FetchResult {
	req = req.Normalize()
	result := &FetchResult{
		AttemptID: f.newID(),
		URL:       req.URL,
		Steps:     make([]Step, 0, 6),
	}
	if progress == nil {
		progress = func(step, message string) {}
	}
	a := &attempt{
		result:   result,
		progress: progress,
		log: f.logger.With(
			zap.String("attempt_id", result.AttemptID),
			zap.String("url", req.URL),
		),
	}

	if err := req.Validate(); err != nil {
		a.begin("validate-url", "Checking URL...")
		return a.fail(newFetchError(KindUnexpected, err))
	}

	a.begin("directory", fmt.Sprintf("Ensuring directory exists: %s", req.Directory))
	if err := os.MkdirAll(req.Directory, 0755); err != nil {
		return a.fail(fileError(err, "create output directory "+req.Directory))
	}
	a.done(req.Directory)

	a.begin("connect", fmt.Sprintf("Connecting to: %s", req.URL))
	resp, err := f.fetcher.Get(ctx, req.URL)
	if err != nil {
		return a.fail(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return a.fail(&FetchError{
			Kind:       KindHTTPStatus,
			StatusCode: resp.StatusCode,
			Err:        eris.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL),
		})
	}
	a.done(fmt.Sprintf("HTTP %d", resp.StatusCode))

	a.begin("validate", "Validating image content...")
	body := bufio.NewReaderSize(resp.Body, ChunkSize)
	var head []byte
	if !IsImageContentType(resp.Header.Get("Content-Type")) {
		head, err = body.Peek(SniffLength)
		if err != nil && !errors.Is(err, io.EOF) {
			return a.fail(readError(err))
		}
	}
	if err := ValidateImage(resp.Header, head); err != nil {
		return a.fail(err)
	}
	a.done(contentSummary(resp.Header.Get("Content-Type"), head))

	a.begin("filename", "Resolving filename...")
	name, source := f.resolver.Resolve(req.URL, resp.Header)
	result.Filename = name
	result.NameSource = source
	a.done(fmt.Sprintf("%s (from %s)", name, source))

	if size := contentLength(resp); size > LargeFileThreshold {
		result.LargeFile = true
		progress("large-file", "Large file detected. Proceeding mindfully...")
		a.log.Warn("large file", zap.Int64("content_length", size))
	}

	a.begin("save", fmt.Sprintf("Saving: %s", name))
	path, n, err := saveUnique(req.Directory, name, body)
	if err != nil {
		return a.fail(err)
	}
	result.Path = path
	result.Filename = filepath.Base(path)
	result.Bytes = n
	result.Success = true
	a.done(fmt.Sprintf("%d bytes written to %s", n, path))

	a.log.Info("image saved", zap.String("path", path), zap.Int64("bytes", n))
	return result
}

// saveUnique streams body into a new file under dir and returns its path and
// the number of bytes written. Existing files are never overwritten: a _N
// suffix is inserted before the extension instead. The file is removed if
// streaming fails.
func saveUnique(dir, name string, body io.Reader) (string, int64, error) {
	file, path, err := createUnique(dir, name)
	if err != nil {
		return "", 0, err
	}

	n, err := copyChunks(file, body)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = fileError(closeErr, "close image file")
	}
	if err != nil {
		os.Remove(path)
		return "", n, err
	}
	return path, n, nil
}

func createUnique(dir, name string) (*os.File, string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	for i := 0; i < maxCollisionSuffix; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
		}
		path := filepath.Join(dir, candidate)
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			return file, path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fileError(err, "create image file "+path)
		}
	}
	return nil, "", eris.Errorf("no free filename for %s in %s", name, dir)
}

// copyChunks copies src to dst in ChunkSize reads, skipping empty reads,
// and returns the number of bytes actually written.
func copyChunks(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, ChunkSize)
	var total int64
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			w, werr := dst.Write(buf[:n])
			total += int64(w)
			if werr != nil {
				return total, fileError(werr, "write image file")
			}
		}
		if errors.Is(rerr, io.EOF) {
			return total, nil
		}
		if rerr != nil {
			return total, readError(rerr)
		}
	}
}

// readError classifies a failure while reading the response body. Anything
// that is not a timeout or a cancellation is treated as a dropped connection.
func readError(err error) error {
	kind := KindConnection
	switch {
	case isTimeout(err):
		kind = KindTimeout
	case errors.Is(err, context.Canceled):
		kind = KindUnexpected
	}
	return newFetchError(kind, eris.Wrap(err, "read response body"))
}

// fileError classifies a filesystem failure as permission or unexpected.
func fileError(err error, msg string) error {
	kind := KindUnexpected
	if errors.Is(err, fs.ErrPermission) {
		kind = KindPermission
	}
	return newFetchError(kind, eris.Wrap(err, msg))
}

func contentLength(resp *http.Response) int64 {
	if resp.ContentLength > 0 {
		return resp.ContentLength
	}
	n, err := strconv.ParseInt(strings.TrimSpace(resp.Header.Get("Content-Length")), 10, 64)
	if err != nil {
		return -1
	}
	return n
}

func contentSummary(contentType string, head []byte) string {
	if IsImageContentType(contentType) {
		return contentType
	}
	return fmt.Sprintf("%s signature", SniffImageFormat(head))
}
