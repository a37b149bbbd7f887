package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/sosodev/duration"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

var (
	partID             = "id"
	partSnippet        = "snippet"
	partContentDetails = "contentDetails"
)

// YouTubeAPI searches through the YouTube Data API v3.
type YouTubeAPI struct {
	service *youtube.Service
	limit   int64
}

func NewYouTubeAPI(ctx context.Context, apiKey string, limit int64) (*YouTubeAPI, error) {
	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube service: %w", err)
	}
	if limit <= 0 {
		limit = DefaultResults
	}
	return &YouTubeAPI{service: service, limit: limit}, nil
}

func (y *YouTubeAPI) Search(ctx context.Context, query string) ([]core.VideoResult, error) {
	resp, err := y.service.Search.List([]string{partID, partSnippet}).
		Q(query).Type("video").MaxResults(y.limit).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	out := make([]core.VideoResult, 0, len(resp.Items))
	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		res := core.VideoResult{
			VideoID:   item.Id.VideoId,
			Title:     untitled,
			Thumbnail: ThumbnailURL(item.Id.VideoId),
		}
		if item.Snippet != nil {
			if item.Snippet.Title != "" {
				res.Title = item.Snippet.Title
			}
			res.ChannelTitle = item.Snippet.ChannelTitle
		}
		out = append(out, res)
		ids = append(ids, item.Id.VideoId)
	}
	if len(ids) == 0 {
		return out, nil
	}

	durations, err := y.durations(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].DurationSeconds = durations[out[i].VideoID]
	}
	return out, nil
}

func (y *YouTubeAPI) durations(ctx context.Context, ids []string) (map[string]int64, error) {
	resp, err := y.service.Videos.List([]string{partContentDetails}).
		Id(strings.Join(ids, ",")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube videos: %w", err)
	}
	out := make(map[string]int64, len(resp.Items))
	for _, item := range resp.Items {
		if item.ContentDetails == nil {
			continue
		}
		secs, err := ParseDuration(item.ContentDetails.Duration)
		if err != nil {
			continue
		}
		out[item.Id] = secs
	}
	return out, nil
}

func (y *YouTubeAPI) Info(ctx context.Context, videoID string) (*core.VideoResult, error) {
	resp, err := y.service.Videos.List([]string{partSnippet, partContentDetails}).
		Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("youtube videos: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, core.ErrNotFound
	}
	item := resp.Items[0]
	res := &core.VideoResult{VideoID: videoID, Thumbnail: ThumbnailURL(videoID)}
	if item.Snippet != nil {
		res.Title = item.Snippet.Title
		res.ChannelTitle = item.Snippet.ChannelTitle
	}
	if item.ContentDetails != nil {
		res.DurationSeconds, _ = ParseDuration(item.ContentDetails.Duration)
	}
	return res, nil
}

// ParseDuration converts an ISO 8601 duration such as PT4M13S to seconds.
func ParseDuration(iso string) (int64, error) {
	d, err := duration.Parse(iso)
	if err != nil {
		return 0, err
	}
	return int64(d.Seconds) + int64(d.Minutes)*60 + int64(d.Hours)*3600 + int64(d.Days)*86400, nil
}
