package prompt

import (
	"context"
	"encoding/json"
	"time"

	apperrors "github.com/kbukum/audiopen/errors"
	"github.com/kbukum/audiopen/httpclient"
	"github.com/kbukum/audiopen/storage/supabase"
)

const restTable = "/user_prompts"

// RESTStore keeps user prompts in the user_prompts table of a Supabase
// project through PostgREST.
type RESTStore struct {
	client *httpclient.Client
	cfg    supabase.Config
}

// NewRESTStore creates a store for the project in cfg.
func NewRESTStore(cfg supabase.Config) (*RESTStore, error) {
	client, err := supabase.NewRESTClient(cfg)
	if err != nil {
		return nil, err
	}
	return &RESTStore{client: client, cfg: cfg}, nil
}

func (s *RESTStore) auth() httpclient.RequestOption {
	return httpclient.WithRequestAuth(s.cfg.RequestAuth())
}

func single(rows []UserPrompt, id string) (UserPrompt, error) {
	if len(rows) == 0 {
		return UserPrompt{}, apperrors.NotFound("prompt", id)
	}
	return rows[0], nil
}

// List returns the owner's prompts in display order.
func (s *RESTStore) List(ctx context.Context, ownerID string) ([]UserPrompt, error) {
	resp, err := httpclient.Get[[]UserPrompt](s.client, ctx, restTable,
		httpclient.WithQueryParam("select", "*"),
		httpclient.WithQueryParam("user_id", "eq."+ownerID),
		httpclient.WithQueryParam("order", "is_favorite.desc,updated_at.desc"),
		s.auth())
	if err != nil {
		return nil, httpclient.ToAppError(err, "prompts")
	}
	return resp.Data, nil
}

// Get returns prompt id.
func (s *RESTStore) Get(ctx context.Context, id string) (UserPrompt, error) {
	resp, err := httpclient.Get[[]UserPrompt](s.client, ctx, restTable,
		httpclient.WithQueryParam("select", "*"),
		httpclient.WithQueryParam("id", "eq."+id),
		s.auth())
	if err != nil {
		return UserPrompt{}, httpclient.ToAppError(err, "prompts")
	}
	return single(resp.Data, id)
}

// Insert stores p and returns the row as the server wrote it.
func (s *RESTStore) Insert(ctx context.Context, p UserPrompt) (UserPrompt, error) {
	resp, err := httpclient.Post[[]UserPrompt](s.client, ctx, restTable, p,
		httpclient.WithHeader("Prefer", "return=representation"),
		s.auth())
	if err != nil {
		return UserPrompt{}, httpclient.ToAppError(err, "prompts")
	}
	return single(resp.Data, p.ID)
}

// Update writes c to prompt id.
func (s *RESTStore) Update(ctx context.Context, id string, c Changes) (UserPrompt, error) {
	return s.patch(ctx, id, c.columns())
}

// IncrementUsage reads the current count and writes it back plus one.
// PostgREST has no increment operator, so concurrent increments can be lost.
func (s *RESTStore) IncrementUsage(ctx context.Context, id string, at time.Time) (UserPrompt, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return UserPrompt{}, err
	}
	return s.patch(ctx, id, map[string]any{"usage_count": cur.UsageCount + 1, "updated_at": at})
}

func (s *RESTStore) patch(ctx context.Context, id string, cols map[string]any) (UserPrompt, error) {
	resp, err := httpclient.Patch[[]UserPrompt](s.client, ctx, restTable, cols,
		httpclient.WithQueryParam("id", "eq."+id),
		httpclient.WithHeader("Prefer", "return=representation"),
		s.auth())
	if err != nil {
		return UserPrompt{}, httpclient.ToAppError(err, "prompts")
	}
	return single(resp.Data, id)
}

// Delete removes prompt id.
func (s *RESTStore) Delete(ctx context.Context, id string) error {
	_, err := httpclient.Delete[json.RawMessage](s.client, ctx, restTable,
		httpclient.WithQueryParam("id", "eq."+id),
		s.auth())
	if err != nil {
		return httpclient.ToAppError(err, "prompts")
	}
	return nil
}
