package application

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// esStub is a minimal Elasticsearch endpoint for the get/update/search
// calls the propagation code issues.
type esStub struct {
	docs    map[string]map[string]any // "index/id" -> _source
	updates []map[string]any          // bodies of _update calls, in order

	searchPages [][]RelatedRecord // consecutive _search responses
	searches    []map[string]any  // bodies of _search calls, in order
}

func (s *esStub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		switch {
		case r.URL.Path == "/":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"version": map[string]any{"number": "8.19.0"},
			})
		case len(parts) == 2 && parts[1] == "_search":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			s.searches = append(s.searches, body)

			var page []RelatedRecord
			if len(s.searchPages) > 0 {
				page, s.searchPages = s.searchPages[0], s.searchPages[1:]
			}
			hits := make([]map[string]any, 0, len(page))
			for _, rec := range page {
				hits = append(hits, map[string]any{
					"_id":    rec.ID,
					"_index": rec.Index,
					"sort":   []any{rec.ID},
				})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"hits": map[string]any{"hits": hits},
			})

		case len(parts) == 3 && parts[1] == "_doc" && r.Method == http.MethodGet:
			src, ok := s.docs[parts[0]+"/"+parts[2]]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				_ = json.NewEncoder(w).Encode(map[string]any{"found": false})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"_index":  parts[0],
				"_id":     parts[2],
				"found":   true,
				"_source": src,
			})

		case len(parts) == 3 && parts[1] == "_update":
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			s.updates = append(s.updates, body)
			_ = json.NewEncoder(w).Encode(map[string]any{"result": "updated"})

		default:
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "unexpected " + r.URL.Path})
		}
	})
}

func newESStub(t *testing.T) (*esStub, *elasticsearch.Client) {
	t.Helper()
	stub := &esStub{docs: map[string]map[string]any{}}
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return stub, es
}

func TestApplyRewritesStaleFieldsOnly(t *testing.T) {
	stub, es := newESStub(t)
	stub.docs["records/r1"] = map[string]any{
		"prop_owner":    "old@example.com",
		"prop_assignee": "old@example.com",
		"prop_author":   "someone-else@example.com",
		"prop_count":    float64(3),
	}
	c := &RecordCorrector{Client: es, Log: quietLogger()}

	err := c.Apply(context.Background(), CorrectionJob{
		RecordID: "r1",
		Index:    "records",
		OldEmail: "old@example.com",
		NewEmail: "new@example.com",
	})
	require.NoError(t, err)

	require.Len(t, stub.updates, 1)
	doc, ok := stub.updates[0]["doc"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{
		"prop_owner":    "new@example.com",
		"prop_assignee": "new@example.com",
	}, doc)
}

func TestApplyLeavesCorrectedRecordAlone(t *testing.T) {
	stub, es := newESStub(t)
	stub.docs["records/r1"] = map[string]any{
		"prop_owner": "new@example.com",
	}
	c := &RecordCorrector{Client: es, Log: quietLogger()}

	err := c.Apply(context.Background(), CorrectionJob{
		RecordID: "r1",
		Index:    "records",
		OldEmail: "old@example.com",
		NewEmail: "new@example.com",
	})
	require.NoError(t, err)
	assert.Empty(t, stub.updates)
}

func TestApplySkipsMissingRecord(t *testing.T) {
	stub, es := newESStub(t)
	c := &RecordCorrector{Client: es, Log: quietLogger()}

	err := c.Apply(context.Background(), CorrectionJob{
		RecordID: "gone",
		Index:    "records",
		OldEmail: "old@example.com",
		NewEmail: "new@example.com",
	})
	require.NoError(t, err)
	assert.Empty(t, stub.updates)
}

func TestFindByEmailPaginatesPastOnePage(t *testing.T) {
	stub, es := newESStub(t)

	full := make([]RelatedRecord, findRelatedPageSize)
	for i := range full {
		full[i] = RelatedRecord{ID: fmt.Sprintf("rec-%04d", i), Index: "records"}
	}
	tail := []RelatedRecord{
		{ID: "rec-tail-1", Index: "records"},
		{ID: "rec-tail-2", Index: "records"},
	}
	stub.searchPages = [][]RelatedRecord{full, tail}

	f := &ESRecordFinder{Client: es, Index: "records"}
	got, err := f.FindByEmail(context.Background(), "old@example.com")
	require.NoError(t, err)

	assert.Len(t, got, findRelatedPageSize+2)
	assert.Equal(t, "rec-0000", got[0].ID)
	assert.Equal(t, "rec-tail-2", got[len(got)-1].ID)

	// Second request resumes after the last hit of the first page.
	require.Len(t, stub.searches, 2)
	assert.NotContains(t, stub.searches[0], "search_after")
	after, ok := stub.searches[1]["search_after"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{full[len(full)-1].ID}, after)
}

func TestFindByEmailSinglePage(t *testing.T) {
	stub, es := newESStub(t)
	stub.searchPages = [][]RelatedRecord{
		{{ID: "only", Index: "records"}},
	}

	f := &ESRecordFinder{Client: es, Index: "records"}
	got, err := f.FindByEmail(context.Background(), "old@example.com")
	require.NoError(t, err)
	assert.Equal(t, []RelatedRecord{{ID: "only", Index: "records"}}, got)
	assert.Len(t, stub.searches, 1)
}
