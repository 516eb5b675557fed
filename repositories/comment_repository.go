package repositories

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/Dosada05/tournament-calendar/models"
)

type CommentRepository interface {
	List(ctx context.Context, tournamentID string) ([]models.Comment, error)
	Post(ctx context.Context, tournamentID, content string) (*models.Comment, error)
}

type httpCommentRepository struct {
	client *Client
}

func NewHTTPCommentRepository(client *Client) CommentRepository {
	return &httpCommentRepository{client: client}
}

type commentDTO struct {
	models.Comment
	MongoID string `json:"_id"`
}

func (d commentDTO) toModel(tournamentID string) models.Comment {
	c := d.Comment
	if c.ID == "" {
		c.ID = d.MongoID
	}
	if c.TournamentID == "" {
		c.TournamentID = tournamentID
	}
	return c
}

func (r *httpCommentRepository) List(ctx context.Context, tournamentID string) ([]models.Comment, error) {
	if tournamentID == "" {
		return nil, ErrTournamentIDRequired
	}
	data, err := r.client.do(ctx, request{
		method: http.MethodGet,
		path:   []string{"/api/comments"},
		query:  url.Values{"tournamentId": {tournamentID}},
	})
	if err != nil {
		return nil, err
	}

	var dtos []commentDTO
	if _, err := decode(data, &dtos, "comment list"); err != nil {
		return nil, err
	}
	if dtos == nil {
		return nil, fmt.Errorf("%w: comment list is not an array", ErrMalformedResponse)
	}
	out := make([]models.Comment, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toModel(tournamentID))
	}
	return out, nil
}

func (r *httpCommentRepository) Post(ctx context.Context, tournamentID, content string) (*models.Comment, error) {
	if tournamentID == "" {
		return nil, ErrTournamentIDRequired
	}
	data, err := r.client.do(ctx, request{
		method:      http.MethodPost,
		path:        []string{"/api/comments"},
		body:        map[string]string{"tournamentId": tournamentID, "content": content},
		requireAuth: true,
	})
	if err != nil {
		return nil, err
	}
	var dto commentDTO
	ok, err := decode(data, &dto, "comment")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: empty comment response", ErrMalformedResponse)
	}
	c := dto.toModel(tournamentID)
	return &c, nil
}
