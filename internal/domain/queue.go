package domain

import (
	"slices"
	"strings"
)

// compareTracks orders by status priority (desc), score (desc), creation
// time (asc). The id comparison only breaks exact ties so the order is total.
func compareTracks(a, b Track) int {
	if pa, pb := a.Status.Priority(), b.Status.Priority(); pa != pb {
		return pb - pa
	}
	if a.Score != b.Score {
		return b.Score - a.Score
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// OrderQueue returns a sorted copy of tracks. Every read path that exposes a
// queue goes through here.
func OrderQueue(tracks []Track) []Track {
	ordered := slices.Clone(tracks)
	slices.SortFunc(ordered, compareTracks)
	return ordered
}

// VisibleQueue drops Played tracks and orders the rest.
func VisibleQueue(tracks []Track) []Track {
	visible := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if t.Status != TrackPlayed {
			visible = append(visible, t)
		}
	}
	return OrderQueue(visible)
}

// PickNext returns the first Ready/Preparing/Queued track in queue order.
func PickNext(tracks []Track) (Track, bool) {
	var (
		best  Track
		found bool
	)
	for _, t := range tracks {
		if !t.Status.IsCandidate() {
			continue
		}
		if !found || compareTracks(t, best) < 0 {
			best, found = t, true
		}
	}
	return best, found
}
