package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/matrixnet/social-service/internal/service"
)

// UserSearchIndexer writes user documents into Elasticsearch so the
// transport layer can offer user search.
type UserSearchIndexer struct {
	Client *elasticsearch.Client
	Index  string
}

func NewUserSearchIndexer(client *elasticsearch.Client, index string) *UserSearchIndexer {
	return &UserSearchIndexer{Client: client, Index: index}
}

func (s *UserSearchIndexer) IndexUser(ctx context.Context, userID int64, email, username string) error {
	doc := map[string]any{
		"id":         userID,
		"email":      email,
		"username":   username,
		"indexed_at": time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      s.Index,
		DocumentID: strconv.FormatInt(userID, 10),
		Body:       strings.NewReader(string(b)),
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.Client)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index user %d: %s", userID, res.Status())
	}
	return nil
}

// SearchUsers runs a multi_match query over email and username.
func (s *UserSearchIndexer) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "username"},
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := s.Client.Search(
		s.Client.Search.WithContext(c),
		s.Client.Search.WithIndex(s.Index),
		s.Client.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

var _ service.SearchIndexer = (*UserSearchIndexer)(nil)
