package room

import "github.com/partyjukebox/server/internal/domain"

// Snapshot is what a participant needs to render the room from scratch.
type Snapshot struct {
	Room  domain.Room    `json:"room"`
	Queue []domain.Track `json:"queue"`
}
