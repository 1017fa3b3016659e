package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leadharvest/pkg/models"
)

const postSearchMinLeads = 10

// postSearchAdapter drives the post-search vendor: keyword extraction with an
// email-domain filter. The vendor rejects submissions without at least one
// domain, so that rule is enforced here before any network call.
type postSearchAdapter struct {
	client *apiClient
}

func NewPostSearchAdapter(baseURL, apiKey string, timeout time.Duration) Adapter {
	return &postSearchAdapter{
		client: newAPIClient(models.ProviderPostSearch, baseURL, apiKey, timeout),
	}
}

func (a *postSearchAdapter) Name() models.Provider { return models.ProviderPostSearch }

func (a *postSearchAdapter) MinLeads() int { return postSearchMinLeads }

func (a *postSearchAdapter) RequiresCollectionType() bool { return false }

func (a *postSearchAdapter) Validate(req *models.SubmitRequest) error {
	hasDomain := false
	for _, d := range req.Domains {
		if strings.TrimSpace(d) != "" {
			hasDomain = true
			break
		}
	}
	if !hasDomain {
		return fmt.Errorf("post-search requires at least one non-empty email domain filter")
	}
	return nil
}

type postSearchSubmit struct {
	Keyword        string   `json:"keyword"`
	AllowedDomains []string `json:"allowed_domains"`
	MaxRecords     int      `json:"max_records"`
}

type postSearchSubmitResponse struct {
	TaskID string `json:"task_id"`
}

type postSearchStatus struct {
	Status       string `json:"status"`
	RecordCount  int    `json:"record_count"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type postSearchResult struct {
	FileURL string `json:"file_url"`
}

func (a *postSearchAdapter) Submit(ctx context.Context, req *models.SubmitRequest) (string, error) {
	domains := make([]string, 0, len(req.Domains))
	for _, d := range req.Domains {
		if strings.TrimSpace(d) != "" {
			domains = append(domains, strings.TrimSpace(d))
		}
	}

	var resp postSearchSubmitResponse
	err := a.client.postJSON(ctx, "/api/extract", &postSearchSubmit{
		Keyword:        req.Target,
		AllowedDomains: domains,
		MaxRecords:     req.MaxLeads,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.TaskID, nil
}

func (a *postSearchAdapter) QueryStatus(ctx context.Context, handle string) (*Status, error) {
	var resp postSearchStatus
	if err := a.client.getJSON(ctx, "/api/extract/"+handle, &resp); err != nil {
		return nil, err
	}
	return &Status{
		State:        mapVendorState(resp.Status),
		ScrapedCount: resp.RecordCount,
		ErrorMessage: resp.ErrorMessage,
	}, nil
}

func (a *postSearchAdapter) FetchResult(ctx context.Context, handle string) (string, error) {
	var resp postSearchResult
	if err := a.client.getJSON(ctx, "/api/extract/"+handle+"/result", &resp); err != nil {
		return "", err
	}
	return resp.FileURL, nil
}
