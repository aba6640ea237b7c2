package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

// Deployer broadcasts contract-creation transactions signed with a
// server-custodied key.
type Deployer struct {
	privateKeyHex string
}

// DeployRequest carries everything needed to put one compiled contract
// on-chain.
type DeployRequest struct {
	RPCURL          string
	ChainID         int64
	ABI             string
	Bytecode        string
	ConstructorArgs []any
	// OwnerAddress receives contract ownership after deployment when the
	// contract exposes transferOwnership. Best effort only.
	OwnerAddress string
}

// DeployResult is the confirmed on-chain outcome of a deployment.
type DeployResult struct {
	Address string
	TxHash  string
	// OwnershipTransferError records a failed best-effort ownership handoff.
	// The deployment itself is still considered successful.
	OwnershipTransferError error
}

// NewDeployer creates a deployer for the configured private key. The key is
// only parsed at deploy time so a server without one can still serve
// client-signed flows.
func NewDeployer(privateKeyHex string) *Deployer {
	return &Deployer{privateKeyHex: privateKeyHex}
}

// Deploy signs and broadcasts a contract-creation transaction, then blocks
// until it is mined. It returns an error for configuration problems, RPC
// failures and reverted transactions alike; the caller persists the outcome.
func (d *Deployer) Deploy(ctx context.Context, req DeployRequest) (*DeployResult, error) {
	if d.privateKeyHex == "" {
		return nil, errors.New("deployer private key is not configured")
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(d.privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid deployer private key: %w", err)
	}

	client, err := ethclient.DialContext(ctx, req.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}
	defer client.Close()

	parsedABI, err := abi.JSON(strings.NewReader(req.ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ABI: %w", err)
	}

	args, err := CoerceConstructorArgs(parsedABI, req.ConstructorArgs)
	if err != nil {
		return nil, err
	}

	auth, err := bind.NewKeyedTransactorWithChainID(privateKey, big.NewInt(req.ChainID))
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	auth.Context = ctx

	address, tx, bound, err := bind.DeployContract(auth, parsedABI, common.FromHex(req.Bytecode), client, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to broadcast deployment transaction: %w", err)
	}

	if _, err := bind.WaitDeployed(ctx, client, tx); err != nil {
		return nil, fmt.Errorf("deployment transaction %s not confirmed: %w", tx.Hash().Hex(), err)
	}

	result := &DeployResult{
		Address: address.Hex(),
		TxHash:  tx.Hash().Hex(),
	}

	// The deployer key owns the contract after a server-custodied deploy.
	// Hand it over to the project owner when the contract supports it.
	if req.OwnerAddress != "" {
		if err := transferOwnership(ctx, auth, parsedABI, bound, req.OwnerAddress, client); err != nil {
			logrus.WithFields(logrus.Fields{
				"contract_address": address.Hex(),
				"owner_address":    req.OwnerAddress,
			}).WithError(err).Warn("best-effort ownership transfer failed")
			result.OwnershipTransferError = err
		}
	}

	return result, nil
}

func transferOwnership(ctx context.Context, auth *bind.TransactOpts, parsedABI abi.ABI, bound *bind.BoundContract, ownerAddress string, client *ethclient.Client) error {
	if _, ok := parsedABI.Methods["transferOwnership"]; !ok {
		return nil
	}
	if !common.IsHexAddress(ownerAddress) {
		return fmt.Errorf("invalid owner address: %s", ownerAddress)
	}

	tx, err := bound.Transact(auth, "transferOwnership", common.HexToAddress(ownerAddress))
	if err != nil {
		return fmt.Errorf("failed to send transferOwnership: %w", err)
	}

	receipt, err := bind.WaitMined(ctx, client, tx)
	if err != nil {
		return fmt.Errorf("transferOwnership %s not confirmed: %w", tx.Hash().Hex(), err)
	}
	if receipt.Status != 1 {
		return fmt.Errorf("transferOwnership %s reverted", tx.Hash().Hex())
	}
	return nil
}
