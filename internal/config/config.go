package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config carries all environment-derived settings. Every field has a working
// default except the ones guarding money movement (deployer key, payment
// recipient, explorer API key), which stay empty unless configured.
type Config struct {
	Port         int
	DatabasePath string
	PostgresURL  string

	// DeployerPrivateKey signs server-custodied contract deployments.
	DeployerPrivateKey string

	// Payment verification settings for subscription upgrades.
	PaymentRPCURL           string
	PaymentChainID          int64
	PaymentTokenAddress     string
	PaymentRecipientAddress string
	PaymentNetworkName      string

	// EtherscanAPIKey authorizes explorer verification submissions.
	EtherscanAPIKey string

	// PrivyVerificationKey is the PEM-encoded ES256 public key published by the
	// auth provider; PrivyAppID is the expected token audience.
	PrivyVerificationKey string
	PrivyAppID           string
}

// Load reads configuration from the environment, loading a .env file first if
// one is present.
func Load() (*Config, error) {
	// Missing .env is fine, the environment may be set directly
	_ = godotenv.Load()

	cfg := &Config{
		Port:                    3001,
		DatabasePath:            getEnv("DATABASE_PATH", "data/smartforge.db"),
		PostgresURL:             os.Getenv("POSTGRES_URL"),
		DeployerPrivateKey:      os.Getenv("DEPLOYER_PRIVATE_KEY"),
		PaymentRPCURL:           getEnv("PAYMENT_RPC_URL", "https://mainnet.base.org"),
		PaymentChainID:          8453,
		PaymentTokenAddress:     getEnv("PAYMENT_TOKEN_ADDRESS", "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
		PaymentRecipientAddress: os.Getenv("PAYMENT_RECIPIENT_ADDRESS"),
		PaymentNetworkName:      getEnv("PAYMENT_NETWORK_NAME", "Base"),
		EtherscanAPIKey:         os.Getenv("ETHERSCAN_API_KEY"),
		PrivyVerificationKey:    os.Getenv("PRIVY_VERIFICATION_KEY"),
		PrivyAppID:              os.Getenv("PRIVY_APP_ID"),
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Port = p
	}

	if chainID := os.Getenv("PAYMENT_CHAIN_ID"); chainID != "" {
		id, err := strconv.ParseInt(chainID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid PAYMENT_CHAIN_ID %q: %w", chainID, err)
		}
		cfg.PaymentChainID = id
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
