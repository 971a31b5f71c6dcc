package blocklist

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/maksimkurb/tinydnsproxy/src/internal/config"
	apperrors "github.com/maksimkurb/tinydnsproxy/src/internal/errors"
	"github.com/maksimkurb/tinydnsproxy/src/internal/hashing"
	"github.com/maksimkurb/tinydnsproxy/src/internal/log"
	"github.com/maksimkurb/tinydnsproxy/src/internal/utils"
)

const (
	defaultHTTPTimeout = 60 * time.Second

	// maxLineLength bounds the memory held for a single list line.
	maxLineLength = 64 * 1024
)

// Source is a place block list entries are fetched from.
type Source interface {
	// Fetch reads the list and calls add for every hostname on it.
	// Entries passed to add before an error is returned are kept.
	Fetch(ctx context.Context, add func(host string)) error
	String() string
}

// HTTPSource downloads a list over HTTP(S).
type HTTPSource struct {
	URL    string
	client *http.Client
}

// NewHTTPSource returns a source for url. A nil client gets a default one
// with a 60 second timeout.
func NewHTTPSource(url string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &HTTPSource{URL: url, client: client}
}

func (s *HTTPSource) String() string {
	return s.URL
}

func (s *HTTPSource) Fetch(ctx context.Context, add func(host string)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return apperrors.NewListError(fmt.Sprintf("invalid list URL %s", s.URL), err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return apperrors.NewListError(fmt.Sprintf("failed to download list %s", s.URL), err)
	}
	defer utils.CloseOrWarn(resp.Body, "response body")

	if resp.StatusCode != http.StatusOK {
		return apperrors.NewListError(fmt.Sprintf("failed to download list %s: %s", s.URL, resp.Status), nil)
	}

	body := hashing.NewMD5ReaderProxy(resp.Body)
	if err := readLines(ctx, body, false, add); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.NewListError(fmt.Sprintf("failed to read list %s", s.URL), err)
	}

	log.Debugf("Downloaded list %s: %d bytes, md5 %s", s.URL, body.BytesRead(), body.GetChecksum())
	return nil
}

// readLines feeds every line of r to add. Lines longer than maxLineLength are
// skipped without being buffered. Bytes after the last newline are passed to
// add only when keepLast is set.
func readLines(ctx context.Context, r io.Reader, keepLast bool, add func(string)) error {
	br := bufio.NewReaderSize(r, maxLineLength)
	skipping := false
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := br.ReadSlice('\n')
		switch {
		case err == nil:
			if skipping {
				skipping = false
				continue
			}
			addLine(line[:len(line)-1], add)
		case errors.Is(err, bufio.ErrBufferFull):
			if !skipping {
				log.Debugf("Skipping block list line longer than %d bytes", maxLineLength)
			}
			skipping = true
		case errors.Is(err, io.EOF):
			if keepLast && !skipping && len(line) > 0 {
				addLine(line, add)
			}
			return nil
		default:
			return err
		}
	}
}

// FileSource reads a list from a local file.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) String() string {
	return s.Path
}

func (s *FileSource) Fetch(ctx context.Context, add func(host string)) error {
	file, err := os.Open(s.Path)
	if err != nil {
		return apperrors.NewIOError(fmt.Sprintf("failed to read list file %s", s.Path), err)
	}
	defer utils.CloseOrWarn(file, s.Path)

	if err := readLines(ctx, file, true, add); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.NewIOError(fmt.Sprintf("failed to read list file %s", s.Path), err)
	}
	return nil
}

// NewSourcesFromConfig returns the HTTP sources followed by the file sources
// of cfg, in configuration order. A nil client is replaced by a default one.
func NewSourcesFromConfig(cfg *config.Config, client *http.Client) []Source {
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}

	sources := make([]Source, 0, len(cfg.HTTPBlockLists)+len(cfg.FileBlockLists))
	for _, list := range cfg.HTTPBlockLists {
		sources = append(sources, NewHTTPSource(list.URL, client))
	}
	for _, list := range cfg.FileBlockLists {
		sources = append(sources, NewFileSource(list.GetAbsolutePath(cfg)))
	}
	return sources
}

// FilePaths returns the paths of all file sources.
func FilePaths(sources []Source) []string {
	var paths []string
	for _, src := range sources {
		if fs, ok := src.(*FileSource); ok {
			paths = append(paths, fs.Path)
		}
	}
	return paths
}
