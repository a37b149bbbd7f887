package core

import "context"

type VideoResult struct {
	VideoID         string `json:"videoId"`
	Title           string `json:"title"`
	Thumbnail       string `json:"thumbnail"`
	ChannelTitle    string `json:"channelTitle"`
	DurationSeconds int64  `json:"durationSeconds,omitempty"`
}

type VideoSearcher interface {
	Search(ctx context.Context, query string) ([]VideoResult, error)
	Info(ctx context.Context, videoID string) (*VideoResult, error)
}
