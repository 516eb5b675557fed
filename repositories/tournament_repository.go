package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Dosada05/tournament-calendar/models"
	"go.uber.org/zap"
)

var ErrTournamentIDRequired = errors.New("tournament id is required")

type TournamentRepository interface {
	List(ctx context.Context) ([]models.Tournament, error)
	Create(ctx context.Context, in models.TournamentInput) (*models.Tournament, error)
	Update(ctx context.Context, id string, in models.TournamentInput) (*models.Tournament, error)
	Delete(ctx context.Context, id string) error
}

type httpTournamentRepository struct {
	client     *Client
	collection string
}

func NewHTTPTournamentRepository(client *Client, collectionPath string) TournamentRepository {
	if collectionPath == "" {
		collectionPath = "/api/tournaments"
	}
	return &httpTournamentRepository{client: client, collection: collectionPath}
}

// tournamentDTO accepts both "id" and the document-store "_id".
type tournamentDTO struct {
	models.Tournament
	MongoID string `json:"_id"`
}

func (d tournamentDTO) toModel() models.Tournament {
	t := d.Tournament
	if t.ID == "" {
		t.ID = d.MongoID
	}
	t.Platforms = models.NormalizePlatforms(t.Platforms)
	if t.LikeCount < 0 {
		t.LikeCount = 0
	}
	return t
}

func (r *httpTournamentRepository) List(ctx context.Context) ([]models.Tournament, error) {
	data, err := r.client.do(ctx, request{method: http.MethodGet, path: []string{r.collection}})
	if err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if _, err := decode(data, &items, "tournament list"); err != nil {
		return nil, err
	}
	if items == nil {
		// пустое тело или null
		return nil, fmt.Errorf("%w: tournament list is not an array", ErrMalformedResponse)
	}

	// одна битая запись не должна прятать остальные
	out := make([]models.Tournament, 0, len(items))
	for i, item := range items {
		var d tournamentDTO
		if err := json.Unmarshal(item, &d); err != nil {
			r.client.logger.Warn("skipping malformed tournament record", zap.Error(err), zap.Int("index", i))
			continue
		}
		out = append(out, d.toModel())
	}
	return out, nil
}

func (r *httpTournamentRepository) Create(ctx context.Context, in models.TournamentInput) (*models.Tournament, error) {
	data, err := r.client.do(ctx, request{method: http.MethodPost, path: []string{r.collection}, body: in})
	if err != nil {
		return nil, err
	}
	return decodeTournament(data)
}

func (r *httpTournamentRepository) Update(ctx context.Context, id string, in models.TournamentInput) (*models.Tournament, error) {
	if id == "" {
		return nil, ErrTournamentIDRequired
	}
	data, err := r.client.do(ctx, request{method: http.MethodPut, path: []string{r.collection, id}, body: in})
	if err != nil {
		return nil, err
	}
	return decodeTournament(data)
}

func (r *httpTournamentRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrTournamentIDRequired
	}
	_, err := r.client.do(ctx, request{method: http.MethodDelete, path: []string{r.collection, id}})
	return err
}

// decodeTournament returns nil for an empty body; callers reload the list anyway.
func decodeTournament(data []byte) (*models.Tournament, error) {
	var dto tournamentDTO
	ok, err := decode(data, &dto, "tournament")
	if err != nil || !ok {
		return nil, err
	}
	t := dto.toModel()
	return &t, nil
}
