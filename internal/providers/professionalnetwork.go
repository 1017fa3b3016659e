package providers

import (
	"context"
	"fmt"
	"time"

	"leadharvest/pkg/models"
)

const professionalNetworkMinLeads = 100

// professionalNetworkAdapter drives the professional-network vendor. The
// vendor localizes searches, so a two-letter country and language code are
// mandatory on every submission.
type professionalNetworkAdapter struct {
	client *apiClient
}

func NewProfessionalNetworkAdapter(baseURL, apiKey string, timeout time.Duration) Adapter {
	return &professionalNetworkAdapter{
		client: newAPIClient(models.ProviderProfessionalNetwork, baseURL, apiKey, timeout),
	}
}

func (a *professionalNetworkAdapter) Name() models.Provider {
	return models.ProviderProfessionalNetwork
}

func (a *professionalNetworkAdapter) MinLeads() int { return professionalNetworkMinLeads }

func (a *professionalNetworkAdapter) RequiresCollectionType() bool { return false }

func (a *professionalNetworkAdapter) Validate(req *models.SubmitRequest) error {
	if len(req.Country) != 2 {
		return fmt.Errorf("professional-network requires a two-letter country code")
	}
	if len(req.Language) != 2 {
		return fmt.Errorf("professional-network requires a two-letter language code")
	}
	return nil
}

type professionalNetworkSubmit struct {
	Query      string `json:"query"`
	Country    string `json:"country"`
	Language   string `json:"language"`
	MaxResults int    `json:"max_results"`
}

type professionalNetworkSubmitResponse struct {
	SearchID string `json:"search_id"`
}

type professionalNetworkStatus struct {
	State         string `json:"state"`
	ProfileCount  int    `json:"profile_count"`
	FailureReason string `json:"failure_reason,omitempty"`
}

type professionalNetworkExport struct {
	ExportURL string `json:"export_url"`
}

func (a *professionalNetworkAdapter) Submit(ctx context.Context, req *models.SubmitRequest) (string, error) {
	var resp professionalNetworkSubmitResponse
	err := a.client.postJSON(ctx, "/v2/searches", &professionalNetworkSubmit{
		Query:      req.Target,
		Country:    req.Country,
		Language:   req.Language,
		MaxResults: req.MaxLeads,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.SearchID, nil
}

func (a *professionalNetworkAdapter) QueryStatus(ctx context.Context, handle string) (*Status, error) {
	var resp professionalNetworkStatus
	if err := a.client.getJSON(ctx, "/v2/searches/"+handle, &resp); err != nil {
		return nil, err
	}
	return &Status{
		State:        mapVendorState(resp.State),
		ScrapedCount: resp.ProfileCount,
		ErrorMessage: resp.FailureReason,
	}, nil
}

func (a *professionalNetworkAdapter) FetchResult(ctx context.Context, handle string) (string, error) {
	var resp professionalNetworkExport
	if err := a.client.getJSON(ctx, "/v2/searches/"+handle+"/export", &resp); err != nil {
		return "", err
	}
	return resp.ExportURL, nil
}
