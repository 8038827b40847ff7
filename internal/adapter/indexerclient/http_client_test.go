package indexerclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexingStatusesDecodesWireFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status", r.URL.Path)
		_ = json.NewEncoder(w).Encode(statusesResponse{
			Statuses: []wireStatus{
				{Deployment: "QmAAA", Network: "mainnet", LatestBlockNumber: 100, EarliestBlockNumber: 1},
			},
		})
	}))
	defer server.Close()

	client := New("x", nil, server.URL)
	statuses, err := client.IndexingStatuses(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, uint64(100), statuses[0].LatestBlock.Number)
	assert.Equal(t, "x", statuses[0].Indexer.ID)
}

func TestProofsOfIndexingReturnsNilOnTransportFailure(t *testing.T) {
	client := New("x", nil, "http://127.0.0.1:0")
	pois := client.ProofsOfIndexing(context.Background(), nil)
	assert.Nil(t, pois)
}

func TestProofsOfIndexingDecodesWireFormat(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/proofs_of_indexing", r.URL.Path)
		_ = json.NewEncoder(w).Encode(poiResponsePayload{
			Pois: []wirePoi{{Deployment: "QmAAA", BlockNumber: 100, Poi: "0x" + strings.Repeat("aa", 32)}},
		})
	}))
	defer server.Close()

	client := New("x", nil, server.URL)
	pois := client.ProofsOfIndexing(context.Background(), nil)
	require.Len(t, pois, 1)
	assert.Equal(t, uint64(100), pois[0].Block.Number)
}
