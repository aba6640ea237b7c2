package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
)

const erc20ABIJSON = `[
	{"anonymous":false,"inputs":[{"indexed":true,"name":"from","type":"address"},{"indexed":true,"name":"to","type":"address"},{"indexed":false,"name":"value","type":"uint256"}],"name":"Transfer","type":"event"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

// PaymentResult is the structured answer of a payment check. Verification
// never returns an error: every failure path maps to Confirmed=false.
type PaymentResult struct {
	Confirmed   bool   `json:"confirmed"`
	Amount      string `json:"amount"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	BlockNumber uint64 `json:"block_number,omitempty"`
}

// PaymentVerifier confirms on-chain USDC transfers against an expected
// sender, amount and the configured payment recipient.
type PaymentVerifier struct {
	rpcURL       string
	tokenAddress common.Address
	recipient    common.Address
}

func NewPaymentVerifier(rpcURL, tokenAddress, recipientAddress string) *PaymentVerifier {
	return &PaymentVerifier{
		rpcURL:       rpcURL,
		tokenAddress: common.HexToAddress(tokenAddress),
		recipient:    common.HexToAddress(recipientAddress),
	}
}

func notConfirmed() *PaymentResult {
	return &PaymentResult{Confirmed: false, Amount: "0"}
}

// Verify checks that txHash is a successful transfer of at least
// expectedAmount (in human units) of the payment token from
// expectedFromAddress to the configured recipient.
func (v *PaymentVerifier) Verify(ctx context.Context, txHash, expectedAmount, expectedFromAddress string) *PaymentResult {
	client, err := ethclient.DialContext(ctx, v.rpcURL)
	if err != nil {
		logrus.WithError(err).Warn("payment verification: RPC dial failed")
		return notConfirmed()
	}
	defer client.Close()

	hash := common.HexToHash(txHash)

	receipt, err := client.TransactionReceipt(ctx, hash)
	if err != nil || receipt == nil || receipt.Status != 1 {
		return notConfirmed()
	}

	tx, _, err := client.TransactionByHash(ctx, hash)
	if err != nil || tx == nil || tx.To() == nil {
		return notConfirmed()
	}
	// The payment must go through the stablecoin contract itself
	if *tx.To() != v.tokenAddress {
		return notConfirmed()
	}

	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return notConfirmed()
	}
	transferSig := erc20ABI.Events["Transfer"].ID

	var from, to common.Address
	var value *big.Int
	for _, entry := range receipt.Logs {
		// Only a Transfer emitted by the token contract itself counts; hooks
		// on other contracts may emit the same signature.
		if entry.Address != v.tokenAddress {
			continue
		}
		if len(entry.Topics) != 3 || entry.Topics[0] != transferSig {
			continue
		}
		from = common.BytesToAddress(entry.Topics[1].Bytes())
		to = common.BytesToAddress(entry.Topics[2].Bytes())
		value = new(big.Int).SetBytes(entry.Data)
		break
	}
	if value == nil {
		return notConfirmed()
	}

	decimals, err := v.tokenDecimals(ctx, client, erc20ABI)
	if err != nil {
		logrus.WithError(err).Warn("payment verification: decimals() call failed")
		return notConfirmed()
	}

	expectedUnits, err := ParseUnits(expectedAmount, decimals)
	if err != nil {
		return notConfirmed()
	}

	confirmed := value.Cmp(expectedUnits) >= 0 &&
		from == common.HexToAddress(expectedFromAddress) &&
		to == v.recipient

	return &PaymentResult{
		Confirmed:   confirmed,
		Amount:      FormatUnits(value, decimals),
		From:        from.Hex(),
		To:          to.Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
	}
}

func (v *PaymentVerifier) tokenDecimals(ctx context.Context, client *ethclient.Client, erc20ABI abi.ABI) (uint8, error) {
	data, err := erc20ABI.Pack("decimals")
	if err != nil {
		return 0, err
	}

	output, err := client.CallContract(ctx, ethereum.CallMsg{
		To:   &v.tokenAddress,
		Data: data,
	}, nil)
	if err != nil {
		return 0, err
	}

	values, err := erc20ABI.Unpack("decimals", output)
	if err != nil {
		return 0, err
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("unexpected decimals() output")
	}

	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals() type %T", values[0])
	}
	return decimals, nil
}

// ParseUnits converts a human-readable decimal amount into the token's
// smallest unit, flooring any excess precision.
func ParseUnits(amount string, decimals uint8) (*big.Int, error) {
	whole, fraction, _ := strings.Cut(strings.TrimSpace(amount), ".")
	if whole == "" {
		whole = "0"
	}

	wholeInt, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	result := new(big.Int).Mul(wholeInt, scale)

	if fraction != "" {
		// Floor semantics: digits beyond the token's precision are dropped
		if len(fraction) > int(decimals) {
			fraction = fraction[:decimals]
		}
		fractionInt, ok := new(big.Int).SetString(fraction, 10)
		if !ok {
			return nil, fmt.Errorf("invalid amount: %s", amount)
		}
		pad := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(int(decimals)-len(fraction))), nil)
		result.Add(result, fractionInt.Mul(fractionInt, pad))
	}

	return result, nil
}

// FormatUnits converts a smallest-unit value into a human-readable decimal
// string, trimming trailing zeros.
func FormatUnits(value *big.Int, decimals uint8) string {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, remainder := new(big.Int).QuoRem(value, scale, new(big.Int))

	if remainder.Sign() == 0 {
		return whole.String()
	}

	fraction := strings.TrimRight(fmt.Sprintf("%0*s", decimals, remainder.String()), "0")
	return fmt.Sprintf("%s.%s", whole.String(), fraction)
}
