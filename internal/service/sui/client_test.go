package sui

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"LPQuant/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) *config.Config {
	var cfg config.Config
	cfg.Indexer.GraphQLURL = url
	cfg.Indexer.Timeout = 2 * time.Second
	return &cfg
}

func TestFetchEventsParsesPage(t *testing.T) {
	var got gqlRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"events":{
			"pageInfo":{"hasNextPage":true,"endCursor":"c2"},
			"nodes":[
				{"contents":{"json":{"pool":"0xabc","amount_in":"100"}},"timestamp":"2024-01-01T00:00:00Z","sequenceNumber":3,"transaction":{"digest":"D1"}},
				{"contents":{"json":{"pool":"0xabc"}},"timestamp":"1704067260000","sequenceNumber":"4","transaction":{"digest":"D2"}}
			]}}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	page, err := c.FetchEvents(context.Background(), "0x1::pool::SwapEvent", "c1", 50)
	require.NoError(t, err)

	assert.Equal(t, "0x1::pool::SwapEvent", got.Variables["eventType"])
	assert.Equal(t, "c1", got.Variables["after"])
	assert.EqualValues(t, 50, got.Variables["first"])

	assert.True(t, page.HasNextPage)
	assert.Equal(t, "c2", page.EndCursor)
	require.Len(t, page.Nodes, 2)
	assert.Equal(t, "D1", page.Nodes[0].TxDigest)
	assert.Equal(t, int64(3), page.Nodes[0].EventSeq)
	assert.Equal(t, int64(1704067200000), page.Nodes[0].Timestamp)
	assert.Equal(t, "0xabc", page.Nodes[0].JSON["pool"])
	assert.Equal(t, int64(4), page.Nodes[1].EventSeq)
	assert.Equal(t, int64(1704067260000), page.Nodes[1].Timestamp)
}

func TestFetchEventsOmitsEmptyCursor(t *testing.T) {
	var got gqlRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":{"events":{"pageInfo":{"hasNextPage":false,"endCursor":null},"nodes":[]}}}`))
	}))
	defer srv.Close()

	page, err := NewClient(testConfig(srv.URL)).FetchEvents(context.Background(), "T", "", 10)
	require.NoError(t, err)
	_, ok := got.Variables["after"]
	assert.False(t, ok)
	assert.False(t, page.HasNextPage)
	assert.Empty(t, page.EndCursor)
	assert.Empty(t, page.Nodes)
}

func TestFetchEventsGraphQLErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad filter"}]}`))
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL)).FetchEvents(context.Background(), "T", "", 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGraphQL)
	assert.Contains(t, err.Error(), "bad filter")
}

func TestFetchEventsRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"events":{"pageInfo":{"hasNextPage":false},"nodes":[]}}}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), WithRetry(3, time.Millisecond))
	_, err := c.FetchEvents(context.Background(), "T", "", 10)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchEventsNoRetryOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), WithRetry(3, time.Millisecond))
	_, err := c.FetchEvents(context.Background(), "T", "", 10)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
