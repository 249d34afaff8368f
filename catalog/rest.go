package catalog

import (
	"context"
	"encoding/json"

	apperrors "github.com/kbukum/audiopen/errors"
	"github.com/kbukum/audiopen/httpclient"
	"github.com/kbukum/audiopen/logger"
	"github.com/kbukum/audiopen/storage/supabase"
)

const restTable = "/recordings"

// RESTBackend talks to the recordings table of a Supabase project through
// PostgREST. Row-level security scopes rows to the token's user.
type RESTBackend struct {
	client *httpclient.Client
	cfg    supabase.Config
	log    *logger.Logger
}

// NewRESTBackend creates a backend for the project in cfg.
func NewRESTBackend(cfg supabase.Config, log *logger.Logger) (*RESTBackend, error) {
	client, err := supabase.NewRESTClient(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RESTBackend{client: client, cfg: cfg, log: log.WithComponent("catalog.rest")}, nil
}

func (b *RESTBackend) auth() httpclient.RequestOption {
	return httpclient.WithRequestAuth(b.cfg.RequestAuth())
}

// List returns the owner's recordings, newest first.
func (b *RESTBackend) List(ctx context.Context, ownerID string) ([]Recording, error) {
	resp, err := httpclient.Get[[]Recording](b.client, ctx, restTable,
		httpclient.WithQueryParam("select", "*"),
		httpclient.WithQueryParam("user_id", "eq."+ownerID),
		httpclient.WithQueryParam("order", "created_at.desc"),
		b.auth())
	if err != nil {
		return nil, httpclient.ToAppError(err, "catalog")
	}
	return resp.Data, nil
}

// Insert stores r and returns the row as the server wrote it.
func (b *RESTBackend) Insert(ctx context.Context, r Recording) (Recording, error) {
	resp, err := httpclient.Post[[]Recording](b.client, ctx, restTable, r,
		httpclient.WithHeader("Prefer", "return=representation"),
		b.auth())
	if err != nil {
		return Recording{}, httpclient.ToAppError(err, "catalog")
	}
	if len(resp.Data) == 0 {
		return Recording{}, apperrors.ExternalServiceError("catalog", errEmptyRepresentation)
	}
	return resp.Data[0], nil
}

// Update sets the mutable fields of row id.
func (b *RESTBackend) Update(ctx context.Context, id string, f Fields) (Recording, error) {
	body := map[string]any{"title": f.Title, "updated_at": f.UpdatedAt}
	resp, err := httpclient.Patch[[]Recording](b.client, ctx, restTable, body,
		httpclient.WithQueryParam("id", "eq."+id),
		httpclient.WithHeader("Prefer", "return=representation"),
		b.auth())
	if err != nil {
		return Recording{}, httpclient.ToAppError(err, "catalog")
	}
	if len(resp.Data) == 0 {
		return Recording{}, apperrors.NotFound("recording", id)
	}
	return resp.Data[0], nil
}

// Delete removes row id.
func (b *RESTBackend) Delete(ctx context.Context, id string) error {
	_, err := httpclient.Delete[json.RawMessage](b.client, ctx, restTable,
		httpclient.WithQueryParam("id", "eq."+id),
		b.auth())
	if err != nil {
		return httpclient.ToAppError(err, "catalog")
	}
	return nil
}
