package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"
)

// CorrectionJob asks a worker to rewrite one denormalized record after a
// user changed their email address. Jobs are idempotent: a record whose
// fields no longer hold OldEmail is left alone.
type CorrectionJob struct {
	RecordID string `json:"record_id"`
	Index    string `json:"index"`
	OldEmail string `json:"old_email"`
	NewEmail string `json:"new_email"`
}

// RelatedRecord identifies a denormalized record that references a user by
// email.
type RelatedRecord struct {
	ID    string
	Index string
}

// RelatedRecordFinder answers "which records mention this email". The
// lookup runs in the request path of a profile update, so implementations
// should be read-only and fast.
type RelatedRecordFinder interface {
	FindByEmail(ctx context.Context, email string) ([]RelatedRecord, error)
}

// TaskPublisher hands a job off to a background worker.
type TaskPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// ESRecordFinder finds records in Elasticsearch whose denormalized
// prop_* fields reference a user email.
type ESRecordFinder struct {
	Client *elasticsearch.Client
	Index  string
}

const findRelatedPageSize = 500

// FindByEmail pages through every match with search_after so that users
// referenced by more than one page of records still get all of them.
func (f *ESRecordFinder) FindByEmail(ctx context.Context, email string) ([]RelatedRecord, error) {
	var records []RelatedRecord
	var after []any

	for {
		body := map[string]any{
			"size":    findRelatedPageSize,
			"_source": false,
			"sort":    []any{map[string]any{"_id": "asc"}},
			"query": map[string]any{
				"multi_match": map[string]any{
					"query":  email,
					"fields": []string{"prop_*"},
					"type":   "phrase",
				},
			},
		}
		if after != nil {
			body["search_after"] = after
		}
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}

		res, err := f.Client.Search(
			f.Client.Search.WithContext(ctx),
			f.Client.Search.WithIndex(f.Index),
			f.Client.Search.WithBody(strings.NewReader(string(buf))),
		)
		if err != nil {
			return nil, err
		}
		page, last, err := decodeHits(res)
		if err != nil {
			return nil, fmt.Errorf("es search %s: %w", f.Index, err)
		}
		records = append(records, page...)
		if len(page) < findRelatedPageSize {
			return records, nil
		}
		after = last
	}
}

func decodeHits(res *esapi.Response) ([]RelatedRecord, []any, error) {
	defer res.Body.Close()
	if res.IsError() {
		return nil, nil, fmt.Errorf("status %s", res.Status())
	}

	var out struct {
		Hits struct {
			Hits []struct {
				ID    string `json:"_id"`
				Index string `json:"_index"`
				Sort  []any  `json:"sort"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, nil, err
	}

	records := make([]RelatedRecord, 0, len(out.Hits.Hits))
	var last []any
	for _, h := range out.Hits.Hits {
		records = append(records, RelatedRecord{ID: h.ID, Index: h.Index})
		last = h.Sort
	}
	return records, last, nil
}

// RecordCorrector applies correction jobs on the worker side. It rereads
// the record and rewrites only fields that still hold the old email, so a
// redelivered job is a no-op.
type RecordCorrector struct {
	Client *elasticsearch.Client
	Log    *logrus.Logger
}

func (c *RecordCorrector) Apply(ctx context.Context, job CorrectionJob) error {
	res, err := c.Client.Get(job.Index, job.RecordID, c.Client.Get.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		c.Log.WithFields(logrus.Fields{"index": job.Index, "record": job.RecordID}).
			Warn("correction target gone, skipping")
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("es get %s/%s: %s", job.Index, job.RecordID, res.Status())
	}

	var doc struct {
		Source map[string]any `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return err
	}

	changed := map[string]any{}
	for k, v := range doc.Source {
		if s, ok := v.(string); ok && s == job.OldEmail {
			changed[k] = job.NewEmail
		}
	}
	if len(changed) == 0 {
		return nil
	}

	body, err := json.Marshal(map[string]any{"doc": changed})
	if err != nil {
		return err
	}
	ures, err := c.Client.Update(job.Index, job.RecordID, strings.NewReader(string(body)),
		c.Client.Update.WithContext(ctx))
	if err != nil {
		return err
	}
	defer ures.Body.Close()
	if ures.IsError() {
		return fmt.Errorf("es update %s/%s: %s", job.Index, job.RecordID, ures.Status())
	}

	c.Log.WithFields(logrus.Fields{
		"index":  job.Index,
		"record": job.RecordID,
		"fields": len(changed),
	}).Info("record email corrected")
	return nil
}
