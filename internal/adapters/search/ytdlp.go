// Package search finds karaoke videos through yt-dlp or the YouTube Data API.
package search

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/dkeye/Karaoke/internal/core"
)

const (
	DefaultResults = 10
	untitled       = "(sem título)"
)

func ThumbnailURL(videoID string) string {
	return "https://i.ytimg.com/vi/" + videoID + "/mqdefault.jpg"
}

func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// YtDlp shells out to the yt-dlp binary. Arguments are passed without a shell.
type YtDlp struct {
	Path    string
	Results int
	Timeout time.Duration
}

func NewYtDlp(path string, results int, timeout time.Duration) *YtDlp {
	if path == "" {
		path = "yt-dlp"
	}
	if results <= 0 {
		results = DefaultResults
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &YtDlp{Path: path, Results: results, Timeout: timeout}
}

type ytdlpEntry struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Channel  string  `json:"channel"`
	Uploader string  `json:"uploader"`
	Duration float64 `json:"duration"`
}

func (e ytdlpEntry) result() core.VideoResult {
	title := e.Title
	if title == "" {
		title = untitled
	}
	channel := e.Channel
	if channel == "" {
		channel = e.Uploader
	}
	return core.VideoResult{
		VideoID:         e.ID,
		Title:           title,
		Thumbnail:       ThumbnailURL(e.ID),
		ChannelTitle:    channel,
		DurationSeconds: int64(e.Duration),
	}
}

func (y *YtDlp) run(ctx context.Context, timeout time.Duration, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, y.Path, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp: %w", err)
	}
	return out, nil
}

func (y *YtDlp) Search(ctx context.Context, query string) ([]core.VideoResult, error) {
	out, err := y.run(ctx, y.Timeout, "-j", "--no-playlist", "--flat-playlist",
		fmt.Sprintf("ytsearch%d:%s", y.Results, query))
	if err != nil {
		return nil, err
	}
	return parseEntries(bytes.NewReader(out)), nil
}

func (y *YtDlp) Info(ctx context.Context, videoID string) (*core.VideoResult, error) {
	out, err := y.run(ctx, y.Timeout/2, "-j", "--no-playlist", WatchURL(videoID))
	if err != nil {
		return nil, err
	}
	var e ytdlpEntry
	if err := json.Unmarshal(out, &e); err != nil {
		return nil, fmt.Errorf("decode yt-dlp output: %w", err)
	}
	e.ID = videoID
	res := e.result()
	res.Title = e.Title
	return &res, nil
}

// parseEntries reads one JSON object per line, skipping junk and entries without an id.
func parseEntries(r io.Reader) []core.VideoResult {
	out := []core.VideoResult{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if len(line) < 2 {
			continue
		}
		var e ytdlpEntry
		if json.Unmarshal([]byte(line), &e) != nil || e.ID == "" {
			continue
		}
		out = append(out, e.result())
	}
	return out
}
