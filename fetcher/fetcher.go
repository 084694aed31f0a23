// Package fetcher acquires a video's audio stream and metadata through a
// yt-dlp subprocess.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tubemind/core"
)

// Media is the result of a successful fetch: a downloaded audio file plus
// the video's identity. Cleanup removes the download directory and must be
// called once the audio has been consumed.
type Media struct {
	AudioPath string
	Meta      core.VideoMeta
	Cleanup   func()
}

// MediaFetcher is the acquisition collaborator. Errors carry
// core.ErrAcquisition.
type MediaFetcher interface {
	Fetch(ctx context.Context, url string) (*Media, error)
}

// YtDlpFetcher shells out to yt-dlp. The binary path is configurable; the
// smallest usable audio-only format is preferred since only speech matters.
type YtDlpFetcher struct {
	binPath string
	log     zerolog.Logger
}

type ytDlpInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func NewYtDlpFetcher(binPath string, log zerolog.Logger) *YtDlpFetcher {
	if binPath == "" {
		binPath = "yt-dlp"
	}
	return &YtDlpFetcher{binPath: binPath, log: log}
}

// CheckBinary verifies the yt-dlp executable is reachable.
func (f *YtDlpFetcher) CheckBinary() error {
	if _, err := exec.LookPath(f.binPath); err != nil {
		return fmt.Errorf("yt-dlp not found at %q: %w", f.binPath, err)
	}
	return nil
}

func (f *YtDlpFetcher) Fetch(ctx context.Context, url string) (*Media, error) {
	jobID := uuid.NewString()
	dir, err := os.MkdirTemp("", "tubemind-"+jobID)
	if err != nil {
		return nil, fmt.Errorf("%w: create download dir: %v", core.ErrAcquisition, err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	args := []string{
		"--no-playlist",
		"--print-json",
		"-f", "bestaudio",
		"-S", "+size,+abr,acodec:opus",
		"-o", filepath.Join(dir, "%(id)s.%(ext)s"),
	}

	// Cookies stay out of the repo; deployments hand them over via env.
	if cookies := os.Getenv("YOUTUBE_COOKIES"); cookies != "" {
		cookiePath := filepath.Join(dir, "cookies.txt")
		if err := os.WriteFile(cookiePath, []byte(cookies), 0600); err != nil {
			cleanup()
			return nil, fmt.Errorf("%w: write cookies: %v", core.ErrAcquisition, err)
		}
		args = append(args, "--cookies", cookiePath)
	}
	args = append(args, url)

	f.log.Info().Str("url", url).Str("job_id", jobID).Msg("downloading audio with yt-dlp")

	cmd := exec.CommandContext(ctx, f.binPath, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: yt-dlp: %v: %s", core.ErrAcquisition, err, truncateOutput(out))
	}

	info, err := parseInfoJSON(out)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: %v", core.ErrAcquisition, err)
	}

	matches, err := filepath.Glob(filepath.Join(dir, info.ID+".*"))
	if err != nil || len(matches) == 0 {
		cleanup()
		return nil, fmt.Errorf("%w: downloaded audio file not found for %s", core.ErrAcquisition, info.ID)
	}

	f.log.Info().Str("video_id", info.ID).Str("title", info.Title).Msg("download complete")
	return &Media{
		AudioPath: matches[0],
		Meta:      core.VideoMeta{VideoID: info.ID, Title: info.Title, URL: url},
		Cleanup:   cleanup,
	}, nil
}

// parseInfoJSON picks the JSON metadata line out of yt-dlp's mixed output;
// warnings and progress lines are interleaved on the same streams.
func parseInfoJSON(out []byte) (*ytDlpInfo, error) {
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "{") {
			continue
		}
		var info ytDlpInfo
		if err := json.Unmarshal([]byte(line), &info); err != nil {
			continue
		}
		if info.ID != "" {
			return &info, nil
		}
	}
	return nil, fmt.Errorf("no metadata JSON in yt-dlp output")
}

func truncateOutput(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > 512 {
		s = s[len(s)-512:]
	}
	return s
}

// MockFetcher returns a canned result.
type MockFetcher struct {
	Media *Media
	Err   error
}

func (m *MockFetcher) Fetch(_ context.Context, _ string) (*Media, error) {
	if m.Err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrAcquisition, m.Err)
	}
	return m.Media, nil
}
