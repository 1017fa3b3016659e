package providers

import (
	"context"
	"time"

	"leadharvest/pkg/models"
)

const profileNetworkMinLeads = 10

// profileNetworkAdapter drives the profile-network vendor: audience scrapes
// keyed on a hashtag or an account's followers/following list.
type profileNetworkAdapter struct {
	client *apiClient
}

func NewProfileNetworkAdapter(baseURL, apiKey string, timeout time.Duration) Adapter {
	return &profileNetworkAdapter{
		client: newAPIClient(models.ProviderProfileNetwork, baseURL, apiKey, timeout),
	}
}

func (a *profileNetworkAdapter) Name() models.Provider { return models.ProviderProfileNetwork }

func (a *profileNetworkAdapter) MinLeads() int { return profileNetworkMinLeads }

func (a *profileNetworkAdapter) RequiresCollectionType() bool { return true }

// Validate has no vendor field rules beyond the collection type, which the
// gateway checks through RequiresCollectionType.
func (a *profileNetworkAdapter) Validate(req *models.SubmitRequest) error {
	return nil
}

type profileNetworkSubmit struct {
	Source string `json:"source"`
	Value  string `json:"value"`
	Limit  int    `json:"limit"`
}

type profileNetworkSubmitResponse struct {
	ScrapeID string `json:"scrape_id"`
}

type profileNetworkStatus struct {
	Status     string `json:"status"`
	LeadsFound int    `json:"leads_found"`
	Error      string `json:"error,omitempty"`
}

type profileNetworkDownload struct {
	DownloadURL string `json:"download_url"`
}

func (a *profileNetworkAdapter) Submit(ctx context.Context, req *models.SubmitRequest) (string, error) {
	var resp profileNetworkSubmitResponse
	err := a.client.postJSON(ctx, "/v1/scrapes", &profileNetworkSubmit{
		Source: string(req.SourceType),
		Value:  req.Target,
		Limit:  req.MaxLeads,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.ScrapeID, nil
}

func (a *profileNetworkAdapter) QueryStatus(ctx context.Context, handle string) (*Status, error) {
	var resp profileNetworkStatus
	if err := a.client.getJSON(ctx, "/v1/scrapes/"+handle, &resp); err != nil {
		return nil, err
	}
	return &Status{
		State:        mapVendorState(resp.Status),
		ScrapedCount: resp.LeadsFound,
		ErrorMessage: resp.Error,
	}, nil
}

func (a *profileNetworkAdapter) FetchResult(ctx context.Context, handle string) (string, error) {
	var resp profileNetworkDownload
	if err := a.client.getJSON(ctx, "/v1/scrapes/"+handle+"/download", &resp); err != nil {
		return "", err
	}
	return resp.DownloadURL, nil
}
