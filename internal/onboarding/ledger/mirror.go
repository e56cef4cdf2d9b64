package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"candidate-onboarding/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

// Indexer stores a single event in a searchable backend.
type Indexer interface {
	Index(ctx context.Context, e Event) error
}

// Mirror forwards appended events to an Indexer on a background goroutine.
// Publish never blocks the workflow; events are dropped when the buffer is full.
type Mirror struct {
	indexer Indexer
	log     logger.Logger
	events  chan Event
	timeout time.Duration

	wg     sync.WaitGroup
	once   sync.Once
	closed chan struct{}
}

func NewMirror(indexer Indexer, bufferSize int, log logger.Logger) *Mirror {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Mirror{
		indexer: indexer,
		log:     logger.Component(log, "ledger-mirror"),
		events:  make(chan Event, bufferSize),
		timeout: 5 * time.Second,
		closed:  make(chan struct{}),
	}
}

// Start launches the delivery loop. It returns when ctx is done or Close is called.
func (m *Mirror) Start(ctx context.Context) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.closed:
				m.drain()
				return
			case e := <-m.events:
				m.deliver(ctx, e)
			}
		}
	}()
}

func (m *Mirror) drain() {
	for {
		select {
		case e := <-m.events:
			m.deliver(context.Background(), e)
		default:
			return
		}
	}
}

func (m *Mirror) deliver(ctx context.Context, e Event) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.indexer.Index(ctx, e); err != nil {
		m.log.Warn("failed to mirror ledger event", map[string]interface{}{
			"event_id":   e.ID,
			"event_type": e.Type,
			"error":      err.Error(),
		})
	}
}

func (m *Mirror) Publish(e Event) {
	select {
	case <-m.closed:
		return
	default:
	}
	select {
	case m.events <- e:
	default:
		m.log.Warn("ledger mirror buffer full, dropping event", map[string]interface{}{
			"event_id":   e.ID,
			"event_type": e.Type,
		})
	}
}

// Close stops accepting events, flushes the buffer and waits for the loop to exit.
func (m *Mirror) Close() {
	m.once.Do(func() { close(m.closed) })
	m.wg.Wait()
}

// ElasticIndexer writes events into an Elasticsearch index keyed by event id.
type ElasticIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticIndexer(client *elasticsearch.Client, index string) *ElasticIndexer {
	return &ElasticIndexer{client: client, index: index}
}

type indexedEvent struct {
	Event
	CandidateID string `json:"candidateId,omitempty"`
}

func (x *ElasticIndexer) Index(ctx context.Context, e Event) error {
	doc := indexedEvent{Event: e}
	if id, ok := e.Details["candidateId"].(string); ok {
		doc.CandidateID = id
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      x.index,
		DocumentID: e.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, x.client)
	if err != nil {
		return fmt.Errorf("index request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index error: %s", res.Status())
	}
	return nil
}

// IndexMapping is the Elasticsearch mapping for mirrored ledger events.
const IndexMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "ts":          {"type": "date"},
      "actor":       {"type": "keyword"},
      "type":        {"type": "keyword"},
      "outcome":     {"type": "keyword"},
      "candidateId": {"type": "keyword"},
      "details":     {"type": "object", "enabled": false}
    }
  }
}`
