// Package extractor drives the external yt-dlp binary: metadata
// resolution with flattened listings, audio fetching into a target
// directory, and provider-side search. Every call is bounded by the
// caller's context; the subprocess is killed on expiry.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Extractor errors. The caller treats every failure as terminal for the
// job; retrying is yt-dlp's own business (it is invoked with --retries).
var (
	ErrUnreachable = errors.New("content is unreachable")
	ErrUnsupported = errors.New("unsupported content URL")
)

// Info is the flattened metadata yt-dlp reports for a URL.
type Info struct {
	Type     string  `json:"_type"`
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	Channel  string  `json:"channel"`
	Entries  []Entry `json:"entries"`
}

// Entry is one item of a flattened container listing, or a search hit.
type Entry struct {
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	URL      string  `json:"url"`
	Webpage  string  `json:"webpage_url"`
	Duration float64 `json:"duration"`
}

// Owner returns the best-known owner of the content.
func (i Info) Owner() string {
	if i.Uploader != "" {
		return i.Uploader
	}
	return i.Channel
}

// PermalinkURL returns the entry's canonical page URL.
func (e Entry) PermalinkURL() string {
	if e.Webpage != "" {
		return e.Webpage
	}
	return e.URL
}

// Client shells out to yt-dlp.
type Client struct {
	binPath string
}

// New returns a Client using the given yt-dlp binary path.
func New(binPath string) *Client {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &Client{binPath: binPath}
}

func (c *Client) runJSON(ctx context.Context, target string) (Info, error) {
	args := []string{
		"--dump-single-json",
		"--flat-playlist",
		"--no-warnings",
		"--retries", "2",
		target,
	}
	cmd := exec.CommandContext(ctx, c.binPath, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.WithField("target", target).Debug("Invoking yt-dlp for metadata")
	if err := cmd.Run(); err != nil {
		return Info{}, classifyRunError(err, stderr.String(), target)
	}

	var info Info
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return Info{}, fmt.Errorf("%w: parsing yt-dlp output for %s: %v", ErrUnreachable, target, err)
	}
	return info, nil
}

// Resolve fetches flattened metadata for a content URL.
func (c *Client) Resolve(ctx context.Context, url string) (Info, error) {
	return c.runJSON(ctx, url)
}

// Search runs a provider search and returns the raw hits.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	target := fmt.Sprintf("scsearch%d:%s", limit, query)
	info, err := c.runJSON(ctx, target)
	if err != nil {
		return nil, err
	}
	return info.Entries, nil
}

// Fetch downloads the content's audio into destDir. The output template
// caps titles at 80 characters the way the original extractor options
// do, keeping filenames within filesystem limits.
func (c *Client) Fetch(ctx context.Context, url, destDir string) error {
	args := []string{
		"--format", "bestaudio[ext=mp3]/bestaudio/best",
		"--output", destDir + "/%(title).80s.%(ext)s",
		"--no-warnings",
		"--ignore-errors",
		"--retries", "2",
		"--quiet",
		url,
	}
	cmd := exec.CommandContext(ctx, c.binPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.WithFields(log.Fields{"url": url, "dest": destDir}).Info("Invoking yt-dlp for download")
	if err := cmd.Run(); err != nil {
		return classifyRunError(err, stderr.String(), url)
	}
	return nil
}

func classifyRunError(err error, stderr, target string) error {
	trimmed := strings.TrimSpace(stderr)
	if trimmed != "" {
		log.WithField("target", target).Debugf("yt-dlp stderr: %s", firstLine(trimmed))
	}
	if strings.Contains(stderr, "Unsupported URL") || strings.Contains(stderr, "is not a valid URL") {
		return fmt.Errorf("%w: %s", ErrUnsupported, target)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w: yt-dlp exited with %d for %s", ErrUnreachable, exitErr.ExitCode(), target)
	}
	return fmt.Errorf("%w: running yt-dlp for %s: %v", ErrUnreachable, target, err)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
