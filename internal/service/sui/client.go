package sui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"LPQuant/internal/domain/models"
	"LPQuant/internal/domain/repository"
	"LPQuant/pkg/config"
	xhttp "LPQuant/pkg/http"
	"LPQuant/pkg/util"

	"golang.org/x/time/rate"
)

const eventsQuery = `query SwapEvents($eventType: String!, $after: String, $first: Int!) {
  events(filter: { type: $eventType }, first: $first, after: $after) {
    pageInfo { hasNextPage endCursor }
    nodes {
      contents { json }
      timestamp
      sequenceNumber
      transaction { digest }
    }
  }
}`

// ErrGraphQL wraps errors reported inside a 200 GraphQL reply.
var ErrGraphQL = errors.New("graphql error")

// Client reads swap events from the Sui GraphQL endpoint.
type Client struct {
	url      string
	http     *xhttp.Client
	limiter  *rate.Limiter
	attempts int
	backoff  time.Duration
}

// Option configures Client.
type Option func(*Client)

// WithRetry sets how many attempts a page fetch gets and the base backoff.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		c.attempts = attempts
		c.backoff = backoff
	}
}

// WithHTTPClient replaces the outbound client.
func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient builds a client from the indexer config. RequestsPerSec paces
// outgoing queries; zero disables pacing.
func NewClient(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		url:      cfg.Indexer.GraphQLURL,
		http:     xhttp.NewClient(xhttp.WithTimeout(cfg.Indexer.Timeout)),
		limiter:  rate.NewLimiter(rate.Inf, 1),
		attempts: 3,
		backoff:  500 * time.Millisecond,
	}
	if rps := cfg.Indexer.RequestsPerSec; rps > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ repository.EventSource = (*Client)(nil)

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type gqlError struct {
	Message string `json:"message"`
}

type eventsReply struct {
	Data struct {
		Events *struct {
			PageInfo struct {
				HasNextPage bool    `json:"hasNextPage"`
				EndCursor   *string `json:"endCursor"`
			} `json:"pageInfo"`
			Nodes []rawNode `json:"nodes"`
		} `json:"events"`
	} `json:"data"`
	Errors []gqlError `json:"errors"`
}

type rawNode struct {
	Contents *struct {
		JSON map[string]interface{} `json:"json"`
	} `json:"contents"`
	Timestamp      interface{} `json:"timestamp"`
	SequenceNumber interface{} `json:"sequenceNumber"`
	Transaction    *struct {
		Digest string `json:"digest"`
	} `json:"transaction"`
}

// FetchEvents returns one page of events of eventType after cursor.
func (c *Client) FetchEvents(ctx context.Context, eventType, cursor string, limit int) (*models.EventPage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	vars := map[string]interface{}{
		"eventType": eventType,
		"first":     limit,
	}
	if cursor != "" {
		vars["after"] = cursor
	}

	var reply eventsReply
	req := gqlRequest{Query: eventsQuery, Variables: vars}
	if err := c.http.PostJSONWithRetry(ctx, c.url, req, &reply, c.attempts, c.backoff); err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	if len(reply.Errors) > 0 {
		msgs := make([]string, 0, len(reply.Errors))
		for _, e := range reply.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("%w: %s", ErrGraphQL, strings.Join(msgs, "; "))
	}
	if reply.Data.Events == nil {
		return nil, fmt.Errorf("%w: missing events field", ErrGraphQL)
	}

	ev := reply.Data.Events
	page := &models.EventPage{
		Nodes:       make([]models.EventNode, 0, len(ev.Nodes)),
		HasNextPage: ev.PageInfo.HasNextPage,
	}
	if ev.PageInfo.EndCursor != nil {
		page.EndCursor = *ev.PageInfo.EndCursor
	}
	for _, n := range ev.Nodes {
		page.Nodes = append(page.Nodes, n.toEventNode())
	}
	return page, nil
}

func (n rawNode) toEventNode() models.EventNode {
	out := models.EventNode{
		Timestamp: epochMillis(n.Timestamp),
		EventSeq:  int64Of(n.SequenceNumber),
	}
	if n.Contents != nil {
		out.JSON = n.Contents.JSON
	}
	if out.JSON == nil {
		out.JSON = map[string]interface{}{}
	}
	if n.Transaction != nil {
		out.TxDigest = n.Transaction.Digest
	}
	return out
}

func epochMillis(v interface{}) int64 {
	switch t := v.(type) {
	case json.Number:
		ms, _ := util.ParseEpochMillis(t.String())
		return ms
	case string:
		ms, _ := util.ParseEpochMillis(t)
		return ms
	case float64:
		return int64(t)
	}
	return 0
}

func int64Of(v interface{}) int64 {
	switch t := v.(type) {
	case json.Number:
		n, _ := t.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	case float64:
		return int64(t)
	}
	return 0
}
