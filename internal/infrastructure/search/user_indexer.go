package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	userapp "github.com/oksasatya/go-user-admin/internal/application"
)

const indexTimeout = 3 * time.Second

// UserIndexer mirrors user views into an Elasticsearch index, one document per user id.
type UserIndexer struct {
	es    *elasticsearch.Client
	index string
}

func NewUserIndexer(es *elasticsearch.Client, index string) *UserIndexer {
	return &UserIndexer{es: es, index: index}
}

type userDoc struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	BirthDate string     `json:"birth_date"`
	Phone     *string    `json:"phone,omitempty"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func (i *UserIndexer) Index(ctx context.Context, v userapp.UserView) error {
	b, err := json.Marshal(userDoc{
		ID:        v.ID,
		Name:      v.Name,
		Email:     v.Email,
		BirthDate: v.BirthDate,
		Phone:     v.Phone,
		Active:    v.Active,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	})
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: strconv.FormatInt(v.ID, 10),
		Body:       bytes.NewReader(b),
		Refresh:    "false",
	}
	c, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()
	res, err := req.Do(c, i.es)
	if err != nil {
		return fmt.Errorf("index user %d: %w", v.ID, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index user %d: %s", v.ID, res.Status())
	}
	return nil
}

// EnsureIndex creates the index with an explicit mapping if it is missing.
func (i *UserIndexer) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	res, err := esapi.IndicesExistsRequest{Index: []string{i.index}}.Do(c, i.es)
	if err != nil {
		return fmt.Errorf("check index %s: %w", i.index, err)
	}
	_ = res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{Index: i.index, Body: bytes.NewReader([]byte(userMapping))}.Do(c, i.es)
	if err != nil {
		return fmt.Errorf("create index %s: %w", i.index, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", i.index, res.Status())
	}
	return nil
}

const userMapping = `{
  "mappings": {
    "properties": {
      "id":         {"type": "long"},
      "name":       {"type": "text"},
      "email":      {"type": "keyword"},
      "birth_date": {"type": "date", "format": "yyyy-MM-dd"},
      "phone":      {"type": "keyword"},
      "active":     {"type": "boolean"},
      "created_at": {"type": "date"},
      "updated_at": {"type": "date"}
    }
  }
}`
