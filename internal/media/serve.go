package media

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	errInvalidRange  = errors.New("invalid range format")
	errUnsatisfiable = errors.New("range not satisfiable")
)

type byteRange struct {
	start int64
	end   int64
}

func (r byteRange) length() int64 {
	return r.end - r.start + 1
}

// parseRange handles single-range "bytes=" headers, including suffix
// ranges. Multi-range requests fall back to the first range.
func parseRange(header string, size int64) (*byteRange, error) {
	if header == "" {
		return nil, nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, errInvalidRange
	}
	if first, _, found := strings.Cut(spec, ","); found {
		spec = strings.TrimSpace(first)
	}

	startStr, endStr, found := strings.Cut(spec, "-")
	if !found {
		return nil, errInvalidRange
	}

	var r byteRange
	if startStr == "" {
		// Suffix range: last N bytes
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return nil, errInvalidRange
		}
		r.start = size - n
		if r.start < 0 {
			r.start = 0
		}
		r.end = size - 1
	} else {
		start, err := strconv.ParseInt(startStr, 10, 64)
		if err != nil || start < 0 {
			return nil, errInvalidRange
		}
		r.start = start
		r.end = size - 1
		if endStr != "" {
			end, err := strconv.ParseInt(endStr, 10, 64)
			if err != nil {
				return nil, errInvalidRange
			}
			if end < size {
				r.end = end
			}
		}
	}

	if r.start > r.end || r.start >= size {
		return nil, errUnsatisfiable
	}
	return &r, nil
}

// ServeVideo serves a cached video file with range support. Returns a
// 404 to the client when the job has no cached file.
func (l *Library) ServeVideo(w http.ResponseWriter, r *http.Request, jobID string) error {
	path, ok := l.Cached(jobID)
	if !ok {
		http.Error(w, "video not downloaded", http.StatusNotFound)
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	size := stat.Size()

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentTypeFor(path))

	reqRange, err := parseRange(r.Header.Get("Range"), size)
	switch {
	case errors.Is(err, errUnsatisfiable):
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	case errors.Is(err, errInvalidRange):
		// Ignore malformed ranges and serve the whole file
		reqRange = nil
	}

	if reqRange == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, file)
		return nil
	}

	w.Header().Set("Content-Length", strconv.FormatInt(reqRange.length(), 10))
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", reqRange.start, reqRange.end, size))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := file.Seek(reqRange.start, io.SeekStart); err != nil {
		return fmt.Errorf("seek %s: %w", path, err)
	}
	io.CopyN(w, file, reqRange.length())
	return nil
}

func contentTypeFor(path string) string {
	switch filepath.Ext(path) {
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	default:
		return "video/mp4"
	}
}
