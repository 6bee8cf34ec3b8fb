package search

import (
	"context"
	"fmt"
	"strings"

	"jobportal/internal/client"
	"jobportal/internal/config"
	"jobportal/internal/model"
	"jobportal/internal/util"
)

// JobIndex mirrors job postings into Elasticsearch for keyword search. The
// credential store stays authoritative; index writes are best-effort and a
// failed write only logs.
type JobIndex struct {
	es    *client.ESClient
	index string
}

func NewJobIndex(es *client.ESClient, cfg *config.Config) *JobIndex {
	return &JobIndex{es: es, index: cfg.Elastic.JobIndex}
}

type jobDocument struct {
	JobID      string `json:"job_id"`
	EmployerID string `json:"employer_id"`
	Title      string `json:"title"`
	Category   string `json:"category"`
	Type       string `json:"type"`
	City       string `json:"city"`
	Country    string `json:"country"`
	Experience string `json:"experience"`
	Text       string `json:"text"`
	PostedAt   string `json:"posted_at"`
}

// Index upserts a posting document keyed by job ID.
func (i *JobIndex) Index(ctx context.Context, job *model.JobPosting) error {
	doc := jobDocument{
		JobID:      job.JobID,
		EmployerID: job.EmployerID,
		Title:      job.Title,
		Category:   strings.ToLower(job.Category),
		Type:       job.Type,
		City:       job.City,
		Country:    job.Country,
		Experience: job.Experience,
		Text:       strings.Join([]string{job.Description, job.Requirements, job.Responsibilities}, "\n"),
		PostedAt:   job.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}

	res, err := i.es.IndexDocument(ctx, i.index, job.JobID, doc)
	if err != nil {
		return fmt.Errorf("index job %s: %w", job.JobID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index job %s: %s", job.JobID, res.Status())
	}
	return nil
}

// Remove deletes a posting document. Missing documents are not an error.
func (i *JobIndex) Remove(ctx context.Context, jobID string) error {
	res, err := i.es.DeleteDocument(ctx, i.index, jobID)
	if err != nil {
		return fmt.Errorf("remove job %s: %w", jobID, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("remove job %s: %s", jobID, res.Status())
	}
	return nil
}

type searchHit struct {
	Source jobDocument `json:"_source"`
}

type searchResult struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

// SearchIDs runs a keyword query, optionally narrowed by category and city,
// and returns matching job IDs in relevance order.
func (i *JobIndex) SearchIDs(ctx context.Context, keyword, category, city string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}

	must := []map[string]interface{}{}
	if keyword != "" {
		must = append(must, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keyword,
				"fields": []string{"title^3", "category^2", "text"},
			},
		})
	}
	filter := []map[string]interface{}{}
	if category != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"category": strings.ToLower(category)},
		})
	}
	if city != "" {
		filter = append(filter, map[string]interface{}{
			"match": map[string]interface{}{"city": city},
		})
	}

	query := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
	}

	res, err := i.es.Search(ctx, i.index, query)
	if err != nil {
		return nil, fmt.Errorf("search jobs: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search jobs: %s", res.Status())
	}

	var parsed searchResult
	if err := i.es.ParseResponse(res, &parsed); err != nil {
		return nil, fmt.Errorf("search jobs: %w", err)
	}

	ids := make([]string, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		ids = append(ids, hit.Source.JobID)
	}
	util.Debug("job search executed",
		util.String("keyword", keyword),
		util.Int("hits", len(ids)))
	return ids, nil
}
