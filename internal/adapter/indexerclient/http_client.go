// Package indexerclient provides a reference domain.IndexerClient that
// speaks a JSON-over-HTTP status/PoI protocol, modeled on the teacher
// pack's http.Client{Timeout: ...} usage in its service layer. The wire
// format itself is an implementation detail of this adapter; any indexer
// endpoint that speaks it can be monitored without touching the core.
package indexerclient

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/yash02896/graphix/internal/domain"
)

// HTTPClient implements domain.IndexerClient against one indexer's base
// URL.
type HTTPClient struct {
	id         string
	address    *[20]byte
	baseURL    string
	httpClient *http.Client
}

// New builds an HTTPClient for the indexer identified by id (and,
// optionally, address) reachable at baseURL.
func New(id string, address *[20]byte, baseURL string) *HTTPClient {
	return &HTTPClient{
		id:      id,
		address: address,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *HTTPClient) ID() string         { return c.id }
func (c *HTTPClient) Address() *[20]byte { return c.address }

func (c *HTTPClient) AddressString() string {
	if c.address == nil {
		return c.id
	}
	return "0x" + hex.EncodeToString(c.address[:])
}

type statusesResponse struct {
	Statuses []wireStatus `json:"statuses"`
}

type wireStatus struct {
	Deployment          string  `json:"deployment"`
	Network             string  `json:"network"`
	LatestBlockNumber   uint64  `json:"latestBlockNumber"`
	LatestBlockHash     *string `json:"latestBlockHash,omitempty"`
	EarliestBlockNumber uint64  `json:"earliestBlockNumber"`
}

func (c *HTTPClient) IndexingStatuses(ctx context.Context) ([]domain.IndexingStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/status", nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query indexing statuses: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("indexing statuses returned status %d", resp.StatusCode)
	}

	var body statusesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}

	handle := domain.IndexerHandle{IndexerID: domain.IndexerID{ID: c.id, Address: c.address}, Client: c}
	statuses := make([]domain.IndexingStatus, 0, len(body.Statuses))
	for _, s := range body.Statuses {
		block := domain.BlockPointer{Number: s.LatestBlockNumber}
		if s.LatestBlockHash != nil {
			if hash, err := decodeHash(*s.LatestBlockHash); err == nil {
				block.Hash = &hash
			}
		}
		statuses = append(statuses, domain.IndexingStatus{
			Indexer:             handle,
			Deployment:          domain.SubgraphDeployment(s.Deployment),
			Network:             s.Network,
			LatestBlock:         block,
			EarliestBlockNumber: s.EarliestBlockNumber,
		})
	}
	return statuses, nil
}

func decodeHash(s string) ([32]byte, error) {
	var h [32]byte
	trimmed := s
	if len(trimmed) >= 2 && trimmed[:2] == "0x" {
		trimmed = trimmed[2:]
	}
	decoded, err := hex.DecodeString(trimmed)
	if err != nil || len(decoded) != len(h) {
		return h, fmt.Errorf("invalid block hash %q", s)
	}
	copy(h[:], decoded)
	return h, nil
}

type poiRequestPayload struct {
	Requests []wirePoiRequest `json:"requests"`
}

type wirePoiRequest struct {
	Deployment  string `json:"deployment"`
	BlockNumber uint64 `json:"blockNumber"`
}

type poiResponsePayload struct {
	Pois []wirePoi `json:"pois"`
}

type wirePoi struct {
	Deployment  string `json:"deployment"`
	BlockNumber uint64 `json:"blockNumber"`
	Poi         string `json:"poi"`
}

// ProofsOfIndexing is infallible by contract: any transport or decode
// error simply yields no results rather than propagating an error, since
// domain.IndexerClient.ProofsOfIndexing has no error return.
func (c *HTTPClient) ProofsOfIndexing(ctx context.Context, requests []domain.PoiRequest) []domain.ProofOfIndexing {
	wireRequests := make([]wirePoiRequest, 0, len(requests))
	for _, r := range requests {
		wireRequests = append(wireRequests, wirePoiRequest{Deployment: string(r.Deployment), BlockNumber: r.BlockNumber})
	}

	payload, err := json.Marshal(poiRequestPayload{Requests: wireRequests})
	if err != nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/proofs_of_indexing", bytes.NewReader(payload))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var body poiResponsePayload
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil
	}

	results := make([]domain.ProofOfIndexing, 0, len(body.Pois))
	for _, p := range body.Pois {
		poi, err := domain.DecodePoiHex(p.Poi)
		if err != nil {
			continue
		}
		results = append(results, domain.ProofOfIndexing{
			Deployment: domain.SubgraphDeployment(p.Deployment),
			Block:      domain.BlockPointer{Number: p.BlockNumber},
			Poi:        poi,
		})
	}
	return results
}

type versionResponse struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

func (c *HTTPClient) Version(ctx context.Context) (domain.GraphNodeCollectedVersion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/version", nil)
	if err != nil {
		return domain.GraphNodeCollectedVersion{}, fmt.Errorf("build version request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GraphNodeCollectedVersion{}, fmt.Errorf("query version: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.GraphNodeCollectedVersion{}, fmt.Errorf("version endpoint returned status %d", resp.StatusCode)
	}

	var body versionResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.GraphNodeCollectedVersion{}, fmt.Errorf("decode version response: %w", err)
	}
	return domain.GraphNodeCollectedVersion{Version: body.Version, Commit: body.Commit}, nil
}

var _ domain.IndexerClient = (*HTTPClient)(nil)
