package repositories

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Dosada05/tournament-calendar/models"
)

type LikeRepository interface {
	Get(ctx context.Context, tournamentID string) (models.LikeState, error)
	Toggle(ctx context.Context, tournamentID string) (models.LikeState, error)
}

type httpLikeRepository struct {
	client *Client
}

func NewHTTPLikeRepository(client *Client) LikeRepository {
	return &httpLikeRepository{client: client}
}

type likeDTO struct {
	Count int  `json:"count"`
	Liked bool `json:"liked"`
}

func (d likeDTO) toModel() models.LikeState {
	if d.Count < 0 {
		d.Count = 0
	}
	return models.LikeState{Count: d.Count, Liked: d.Liked}
}

func (r *httpLikeRepository) Get(ctx context.Context, tournamentID string) (models.LikeState, error) {
	if tournamentID == "" {
		return models.LikeState{}, ErrTournamentIDRequired
	}
	data, err := r.client.do(ctx, request{
		method: http.MethodGet,
		path:   []string{"/api/likes"},
		query:  url.Values{"tournamentId": {tournamentID}},
	})
	if err != nil {
		return models.LikeState{}, err
	}
	var dto likeDTO
	if _, err := decode(data, &dto, "like state"); err != nil {
		return models.LikeState{}, err
	}
	return dto.toModel(), nil
}

func (r *httpLikeRepository) Toggle(ctx context.Context, tournamentID string) (models.LikeState, error) {
	if tournamentID == "" {
		return models.LikeState{}, ErrTournamentIDRequired
	}
	data, err := r.client.do(ctx, request{
		method:      http.MethodPost,
		path:        []string{"/api/likes"},
		body:        map[string]string{"tournamentId": tournamentID},
		requireAuth: true,
	})
	if err != nil {
		return models.LikeState{}, err
	}
	var dto likeDTO
	if _, err := decode(data, &dto, "like state"); err != nil {
		return models.LikeState{}, err
	}
	return dto.toModel(), nil
}
