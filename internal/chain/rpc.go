package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RPCClient is a minimal Ethereum JSON-RPC client used where a full ethclient
// is overkill, such as confirming a client-signed deployment transaction.
type RPCClient struct {
	URL    string
	client *http.Client
}

// NewRPCClient creates an RPC client for the given endpoint.
func NewRPCClient(url string) *RPCClient {
	return &RPCClient{
		URL:    url,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetTimeout bounds every request made by the client.
func (r *RPCClient) SetTimeout(timeout time.Duration) {
	r.client.Timeout = timeout
}

// JSONRPCRequest represents a JSON-RPC request
type JSONRPCRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

// JSONRPCResponse represents a JSON-RPC response
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError represents an RPC error
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// TransactionReceipt represents an Ethereum transaction receipt
type TransactionReceipt struct {
	TransactionHash   string `json:"transactionHash"`
	TransactionIndex  string `json:"transactionIndex"`
	BlockHash         string `json:"blockHash"`
	BlockNumber       string `json:"blockNumber"`
	CumulativeGasUsed string `json:"cumulativeGasUsed"`
	GasUsed           string `json:"gasUsed"`
	ContractAddress   string `json:"contractAddress"`
	Status            string `json:"status"`
	From              string `json:"from"`
	To                string `json:"to"`
}

// Call makes a JSON-RPC call
func (r *RPCClient) Call(ctx context.Context, method string, params []interface{}) (*JSONRPCResponse, error) {
	request := JSONRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	var response JSONRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Error != nil {
		return nil, fmt.Errorf("RPC error %d: %s", response.Error.Code, response.Error.Message)
	}

	return &response, nil
}

// GetTransactionReceipt gets the transaction receipt for a given hash
func (r *RPCClient) GetTransactionReceipt(ctx context.Context, txHash string) (*TransactionReceipt, error) {
	response, err := r.Call(ctx, "eth_getTransactionReceipt", []interface{}{txHash})
	if err != nil {
		return nil, err
	}

	if response.Result == nil {
		return nil, fmt.Errorf("transaction not found or not yet mined")
	}

	receiptData, err := json.Marshal(response.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal receipt data: %w", err)
	}

	var receipt TransactionReceipt
	if err := json.Unmarshal(receiptData, &receipt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal receipt: %w", err)
	}

	return &receipt, nil
}

// ConfirmDeploymentTx checks that a claimed deployment transaction is mined
// and did not revert. Status "0x1" means success, "0x0" means failure.
func (r *RPCClient) ConfirmDeploymentTx(ctx context.Context, txHash string) (bool, *TransactionReceipt, error) {
	receipt, err := r.GetTransactionReceipt(ctx, txHash)
	if err != nil {
		return false, nil, err
	}

	success := receipt.Status == "0x1"
	return success, receipt, nil
}
