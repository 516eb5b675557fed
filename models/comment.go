package models

import "time"

// Comment представляет комментарий к турниру. Комментарии не редактируются.
type Comment struct {
	ID           string     `json:"id"`
	TournamentID string     `json:"tournamentId,omitempty"`
	UserID       string     `json:"userId"`
	Content      string     `json:"content"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
}

// AuthorTag is the short author label shown next to a comment.
func (c Comment) AuthorTag() string {
	if len(c.UserID) <= 6 {
		return c.UserID
	}
	return c.UserID[len(c.UserID)-6:]
}

// LikeState is the server's view of likes on a tournament for the viewer.
type LikeState struct {
	Count int  `json:"count"`
	Liked bool `json:"liked"`
}
