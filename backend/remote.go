package backend

import (
	"context"
	"fmt"
)

// Remote is an EmbeddingBackend served over HTTP.
//
// The service answers two JSON endpoints:
//
//	POST {base}/v1/mel    {"samples": [...], "sample_rate": 22050}  -> {"mel": [[...], ...]}
//	POST {base}/v1/embed  {"mel": [[...], ...]}                     -> {"embedding": [...]}
type Remote struct {
	http *httpClient
	dim  int
}

var _ EmbeddingBackend = (*Remote)(nil)

// NewRemote creates a Remote backend producing dim-length embeddings.
func NewRemote(baseURL string, dim int, opts ...HTTPOption) *Remote {
	return &Remote{
		http: newHTTPClient("embedding", baseURL, opts...),
		dim:  dim,
	}
}

// Dimension returns the embedding length
func (r *Remote) Dimension() int {
	return r.dim
}

type melRequest struct {
	Samples    []float64 `json:"samples"`
	SampleRate int       `json:"sample_rate"`
}

type melResponse struct {
	Mel MelGrid `json:"mel"`
}

// Mel asks the service for the mel grid of samples
func (r *Remote) Mel(ctx context.Context, samples []float64, rate int) (MelGrid, error) {
	var resp melResponse
	if err := r.http.post(ctx, "/v1/mel", melRequest{Samples: samples, SampleRate: rate}, &resp); err != nil {
		return nil, fmt.Errorf("remote mel: %w", err)
	}
	return resp.Mel, nil
}

type embedRequest struct {
	Mel MelGrid `json:"mel"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed asks the service for the embedding of mel. The length is returned
// as-is; callers validate it against Dimension.
func (r *Remote) Embed(ctx context.Context, mel MelGrid) ([]float32, error) {
	var resp embedResponse
	if err := r.http.post(ctx, "/v1/embed", embedRequest{Mel: mel}, &resp); err != nil {
		return nil, fmt.Errorf("remote embed: %w", err)
	}
	return resp.Embedding, nil
}
