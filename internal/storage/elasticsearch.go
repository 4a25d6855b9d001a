package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/jonesrussell/intent-engine/internal/domain"
)

const (
	signalsIndex   = "intent_signals"
	companiesIndex = "intent_companies"
)

// ElasticsearchSink indexes decided signals and company aggregates for
// downstream dashboards and reporting.
type ElasticsearchSink struct {
	client *es.Client
}

// NewElasticsearchSink creates a new Elasticsearch sink instance
func NewElasticsearchSink(client *es.Client) *ElasticsearchSink {
	return &ElasticsearchSink{
		client: client,
	}
}

// BulkIndexSignals indexes a batch of decided signals in one request
func (s *ElasticsearchSink) BulkIndexSignals(ctx context.Context, signals []*domain.Signal) error {
	if len(signals) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, sig := range signals {
		meta := map[string]interface{}{
			"index": map[string]interface{}{
				"_index": signalsIndex,
				"_id":    sig.ID,
			},
		}

		if err := json.NewEncoder(&buf).Encode(meta); err != nil {
			return fmt.Errorf("failed to encode meta: %w", err)
		}

		if err := json.NewEncoder(&buf).Encode(sig); err != nil {
			return fmt.Errorf("failed to encode signal: %w", err)
		}
	}

	res, err := s.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("bulk request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk indexing error: %s", res.String())
	}

	return nil
}

// BulkIndexAggregates indexes company aggregates keyed by company key,
// so repeated runs overwrite the previous rollup for each company
func (s *ElasticsearchSink) BulkIndexAggregates(ctx context.Context, aggregates []*domain.CompanyAggregate) error {
	if len(aggregates) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, agg := range aggregates {
		meta := map[string]interface{}{
			"index": map[string]interface{}{
				"_index": companiesIndex,
				"_id":    agg.CompanyKey,
			},
		}

		if err := json.NewEncoder(&buf).Encode(meta); err != nil {
			return fmt.Errorf("failed to encode meta: %w", err)
		}

		if err := json.NewEncoder(&buf).Encode(agg); err != nil {
			return fmt.Errorf("failed to encode aggregate: %w", err)
		}
	}

	res, err := s.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("bulk request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk indexing error: %s", res.String())
	}

	return nil
}

// QuerySignalsByCompany fetches indexed signals for a company key,
// newest first by published_at
func (s *ElasticsearchSink) QuerySignalsByCompany(ctx context.Context, companyKey string, size int) ([]*domain.Signal, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{
				"company_key": companyKey,
			},
		},
		"size": size,
		"sort": []map[string]interface{}{
			{
				"published_at": map[string]interface{}{
					"order": "desc",
				},
			},
		},
	}

	queryBytes, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(signalsIndex),
		s.client.Search.WithBody(bytes.NewReader(queryBytes)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error searching: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				ID     string        `json:"_id"`
				Source domain.Signal `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	signals := make([]*domain.Signal, 0, len(searchResult.Hits.Hits))
	for _, hit := range searchResult.Hits.Hits {
		sig := hit.Source
		if sig.ID == "" {
			sig.ID = hit.ID
		}
		signals = append(signals, &sig)
	}

	return signals, nil
}

// TestConnection tests the connection to Elasticsearch
func (s *ElasticsearchSink) TestConnection(ctx context.Context) error {
	res, err := s.client.Info(s.client.Info.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to connect to Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error response from Elasticsearch: %s", res.String())
	}

	return nil
}
