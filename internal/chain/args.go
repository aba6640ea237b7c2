package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// CoerceConstructorArgs converts loosely-typed JSON values into the Go types
// the ABI encoder expects for the constructor's inputs.
func CoerceConstructorArgs(parsedABI abi.ABI, args []any) ([]any, error) {
	inputs := parsedABI.Constructor.Inputs

	if len(inputs) > 0 && len(args) == 0 {
		return nil, fmt.Errorf("contract constructor requires %d arguments but none provided", len(inputs))
	}
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("expected %d constructor arguments, got %d", len(inputs), len(args))
	}

	coerced := make([]any, len(args))
	for i, input := range inputs {
		value, err := coerceArg(input.Type, args[i])
		if err != nil {
			return nil, fmt.Errorf("failed to process argument %d (%s): %w", i, input.Name, err)
		}
		coerced[i] = value
	}
	return coerced, nil
}

func coerceArg(argType abi.Type, value any) (any, error) {
	switch argType.T {
	case abi.AddressTy:
		switch v := value.(type) {
		case string:
			if !common.IsHexAddress(v) {
				return nil, fmt.Errorf("invalid address: %s", v)
			}
			return common.HexToAddress(v), nil
		case common.Address:
			return v, nil
		default:
			return nil, fmt.Errorf("unsupported address type: %T", value)
		}

	case abi.UintTy, abi.IntTy:
		switch v := value.(type) {
		case string:
			bigInt, ok := new(big.Int).SetString(v, 10)
			if !ok {
				bigInt, ok = new(big.Int).SetString(v, 16)
				if !ok {
					return nil, fmt.Errorf("invalid integer: %s", v)
				}
			}
			return bigInt, nil
		case *big.Int:
			return v, nil
		case int64:
			return big.NewInt(v), nil
		case int:
			return big.NewInt(int64(v)), nil
		case uint64:
			return new(big.Int).SetUint64(v), nil
		case float64:
			return big.NewInt(int64(v)), nil
		default:
			return nil, fmt.Errorf("unsupported integer type: %T", value)
		}

	case abi.BoolTy:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			return strings.ToLower(v) == "true", nil
		default:
			return nil, fmt.Errorf("unsupported bool type: %T", value)
		}

	case abi.StringTy:
		switch v := value.(type) {
		case string:
			return v, nil
		default:
			return nil, fmt.Errorf("unsupported string type: %T", value)
		}

	case abi.BytesTy, abi.FixedBytesTy:
		switch v := value.(type) {
		case string:
			return common.FromHex(v), nil
		case []byte:
			return v, nil
		default:
			return nil, fmt.Errorf("unsupported bytes type: %T", value)
		}

	default:
		return value, nil
	}
}
