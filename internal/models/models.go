package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSON is a custom type for JSON fields
type JSON map[string]interface{}

// Implement the driver.Valuer interface for JSON type
func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Implement the sql.Scanner interface for JSON type
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	case nil:
		*j = nil
		return nil
	default:
		return errors.New("type assertion to []byte failed")
	}

	if len(bytes) == 0 {
		*j = nil
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// NetworkConfig describes the EVM network a project targets or was deployed to.
type NetworkConfig struct {
	Name    string `json:"name"`
	RPCURL  string `json:"rpcUrl"`
	ChainID int64  `json:"chainId"`
}

// Validate reports whether all required network fields are present.
func (n NetworkConfig) Validate() error {
	if n.Name == "" || n.RPCURL == "" || n.ChainID == 0 {
		return errors.New("network config requires name, rpcUrl and chainId")
	}
	return nil
}
