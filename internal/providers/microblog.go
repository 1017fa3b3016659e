package providers

import (
	"context"
	"fmt"
	"time"

	"leadharvest/pkg/models"
)

const microBlogMinLeads = 10

// microBlogAdapter drives the micro-blog vendor: keyword or hashtag scrapes
// over public posts.
type microBlogAdapter struct {
	client *apiClient
}

func NewMicroBlogAdapter(baseURL, apiKey string, timeout time.Duration) Adapter {
	return &microBlogAdapter{
		client: newAPIClient(models.ProviderMicroBlog, baseURL, apiKey, timeout),
	}
}

func (a *microBlogAdapter) Name() models.Provider { return models.ProviderMicroBlog }

func (a *microBlogAdapter) MinLeads() int { return microBlogMinLeads }

func (a *microBlogAdapter) RequiresCollectionType() bool { return false }

func (a *microBlogAdapter) Validate(req *models.SubmitRequest) error {
	if req.SourceType != models.SourceKeyword && req.SourceType != models.SourceHashtag {
		return fmt.Errorf("micro-blog supports keyword or hashtag sources only")
	}
	return nil
}

type microBlogSubmit struct {
	Term  string `json:"term"`
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

type microBlogSubmitResponse struct {
	JobID string `json:"job_id"`
}

type microBlogStatus struct {
	Status  string `json:"status"`
	Scraped int    `json:"scraped"`
	Message string `json:"message,omitempty"`
}

type microBlogResult struct {
	URL string `json:"url"`
}

func (a *microBlogAdapter) Submit(ctx context.Context, req *models.SubmitRequest) (string, error) {
	var resp microBlogSubmitResponse
	err := a.client.postJSON(ctx, "/jobs", &microBlogSubmit{
		Term:  req.Target,
		Kind:  string(req.SourceType),
		Count: req.MaxLeads,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.JobID, nil
}

func (a *microBlogAdapter) QueryStatus(ctx context.Context, handle string) (*Status, error) {
	var resp microBlogStatus
	if err := a.client.getJSON(ctx, "/jobs/"+handle, &resp); err != nil {
		return nil, err
	}
	return &Status{
		State:        mapVendorState(resp.Status),
		ScrapedCount: resp.Scraped,
		ErrorMessage: resp.Message,
	}, nil
}

func (a *microBlogAdapter) FetchResult(ctx context.Context, handle string) (string, error) {
	var resp microBlogResult
	if err := a.client.getJSON(ctx, "/jobs/"+handle+"/result", &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}
