package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/smartforge-lab/smartforge/internal/poller"
)

const (
	// VerifyPollInterval and VerifyMaxAttempts bound the explorer status poll
	// loop to roughly 140 seconds.
	VerifyPollInterval = 7 * time.Second
	VerifyMaxAttempts  = 20
)

// verifyEndpoints maps supported chain IDs to their explorer API endpoints.
var verifyEndpoints = map[int64]string{
	8453:  "https://api.basescan.org/api",
	84532: "https://api-sepolia.basescan.org/api",
}

// ExplorerClient submits contract source to a block-explorer verification
// service and polls the resulting job.
type ExplorerClient struct {
	apiKey string
	client *http.Client
}

// SubmitRequest describes one single-file verification submission.
type SubmitRequest struct {
	Address         string
	ChainID         int64
	ContractName    string
	SourceCode      string
	CompilerVersion string
	// OptimizerRuns defaults to 200 when zero.
	OptimizerRuns int
	// LicenseType defaults to "1" (no license) when empty.
	LicenseType string
}

// SubmitResult carries the verification job GUID and the endpoint it was
// submitted to.
type SubmitResult struct {
	GUID     string `json:"guid"`
	Endpoint string `json:"endpoint"`
}

type explorerResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

func NewExplorerClient(apiKey string) *ExplorerClient {
	return &ExplorerClient{
		apiKey: apiKey,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// EndpointForChain returns the explorer API endpoint for a chain ID.
func EndpointForChain(chainID int64) (string, error) {
	endpoint, ok := verifyEndpoints[chainID]
	if !ok {
		return "", fmt.Errorf("chain %d is not supported for verification", chainID)
	}
	return endpoint, nil
}

// Submit posts the verification form. A non-"1" status in the explorer
// response is a hard failure carrying the explorer's result field.
func (e *ExplorerClient) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	if e.apiKey == "" {
		return nil, errors.New("explorer API key is not configured")
	}

	endpoint, err := EndpointForChain(req.ChainID)
	if err != nil {
		return nil, err
	}

	runs := req.OptimizerRuns
	if runs == 0 {
		runs = 200
	}
	license := req.LicenseType
	if license == "" {
		license = "1"
	}

	form := url.Values{
		"apikey":           {e.apiKey},
		"module":           {"contract"},
		"action":           {"verifysourcecode"},
		"contractaddress":  {req.Address},
		"sourceCode":       {req.SourceCode},
		"codeformat":       {"solidity-single-file"},
		"contractname":     {req.ContractName},
		"compilerversion":  {req.CompilerVersion},
		"optimizationUsed": {"1"},
		"runs":             {strconv.Itoa(runs)},
		"licenseType":      {license},
	}

	response, err := e.postForm(ctx, endpoint, form)
	if err != nil {
		return nil, err
	}
	if response.Status != "1" {
		return nil, fmt.Errorf("verification submission rejected: %s", response.Result)
	}

	return &SubmitResult{GUID: response.Result, Endpoint: endpoint}, nil
}

// CheckStatus performs one status poll for a submitted verification job.
func (e *ExplorerClient) CheckStatus(ctx context.Context, chainID int64, guid string) (poller.Status, error) {
	endpoint, err := EndpointForChain(chainID)
	if err != nil {
		return poller.Status{}, err
	}

	form := url.Values{
		"apikey": {e.apiKey},
		"module": {"contract"},
		"action": {"checkverifystatus"},
		"guid":   {guid},
	}

	response, err := e.postForm(ctx, endpoint, form)
	if err != nil {
		return poller.Status{}, err
	}

	return ClassifyVerifyStatus(response.Status, response.Result), nil
}

// ClassifyVerifyStatus maps an explorer status response onto the three-way
// poll outcome: status "1" is success, a result still mentioning "pending"
// keeps polling, anything else is a failure.
func ClassifyVerifyStatus(status, result string) poller.Status {
	if status == "1" {
		return poller.Status{Outcome: poller.OutcomeSuccess, Message: result}
	}
	if strings.Contains(strings.ToLower(result), "pending") {
		return poller.Status{Outcome: poller.OutcomePending, Message: result}
	}
	return poller.Status{Outcome: poller.OutcomeFailed, Message: result}
}

func (e *ExplorerClient) postForm(ctx context.Context, endpoint string, form url.Values) (*explorerResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create explorer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("explorer request failed: %w", err)
	}
	defer resp.Body.Close()

	var response explorerResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode explorer response: %w", err)
	}

	return &response, nil
}
