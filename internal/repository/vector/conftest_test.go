package vector

import (
	"context"

	"github.com/kailas-cloud/promptdex/internal/db"
)

// fakeRedis implements redisStore in memory and records calls.
type fakeRedis struct {
	hashes      map[string]map[string]string
	indexExists bool
	created     *db.IndexDefinition
	createErr   error
	lastQuery   *db.KNNQuery
	result      *db.SearchResult
	searchErr   error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{hashes: map[string]map[string]string{}}
}

func (f *fakeRedis) HSet(_ context.Context, key string, fields map[string]string) error {
	f.hashes[key] = fields
	return nil
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.hashes, k)
	}
	return nil
}

func (f *fakeRedis) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	f.created = def
	return f.createErr
}

func (f *fakeRedis) IndexExists(_ context.Context, _ string) (bool, error) {
	return f.indexExists, nil
}

func (f *fakeRedis) SearchKNN(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	f.lastQuery = q
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.result == nil {
		return &db.SearchResult{}, nil
	}
	return f.result, nil
}
