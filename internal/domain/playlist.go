package domain

import "time"

const SourceYoutube = "youtube"

type TrackStatus string

const (
	TrackQueued    TrackStatus = "queued"
	TrackPreparing TrackStatus = "preparing"
	TrackReady     TrackStatus = "ready"
	TrackPlaying   TrackStatus = "playing"
	TrackPlayed    TrackStatus = "played"
	TrackError     TrackStatus = "error"
)

// higher sorts first
var trackStatusPriority = map[TrackStatus]int{
	TrackPlaying:   4,
	TrackReady:     3,
	TrackPreparing: 2,
	TrackQueued:    1,
	TrackPlayed:    0,
	TrackError:     -1,
}

func (s TrackStatus) Priority() int {
	return trackStatusPriority[s]
}

func (s TrackStatus) Valid() bool {
	_, ok := trackStatusPriority[s]
	return ok
}

// IsCandidate reports whether a track in this status may be picked to play next.
func (s TrackStatus) IsCandidate() bool {
	return s == TrackReady || s == TrackPreparing || s == TrackQueued
}

type VoteSummary struct {
	Up   int `json:"up"`
	Down int `json:"down"`
}

func (v VoteSummary) Score() int {
	return v.Up - v.Down
}

type Track struct {
	ID           string      `json:"id"`
	RoomID       string      `json:"room_id"`
	Source       string      `json:"source"`
	VideoID      string      `json:"video_id"`
	Title        string      `json:"title"`
	Channel      string      `json:"channel"`
	DurationMs   int         `json:"duration_ms"`
	ThumbnailURL string      `json:"thumbnail_url"`
	AddedBy      string      `json:"added_by"`
	Votes        VoteSummary `json:"votes"`
	Score        int         `json:"score"`
	Status       TrackStatus `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
}

type VoteValue int

const (
	VoteUp   VoteValue = 1
	VoteDown VoteValue = -1
)

func (v VoteValue) Valid() bool {
	return v == VoteUp || v == VoteDown
}

type Vote struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	TrackID   string    `json:"track_id"`
	UserID    string    `json:"user_id"`
	Value     VoteValue `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}
