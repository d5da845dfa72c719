package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"synthvault/crypto"

	"github.com/BurntSushi/toml"
)

// Risk mirrors the engine limits that operators may override. Zero values
// fall back to the protocol defaults.
type Risk struct {
	MinCollateralRatio      uint64 `toml:"MinCollateralRatio"`
	LiquidationThreshold    uint64 `toml:"LiquidationThreshold"`
	LiquidationBonusPct     uint64 `toml:"LiquidationBonusPct"`
	LiquidationPenaltyPct   uint64 `toml:"LiquidationPenaltyPct"`
	MintingFeeBps           uint64 `toml:"MintingFeeBps"`
	CooldownBlocks          uint64 `toml:"CooldownBlocks"`
	OracleStalenessLimit    uint64 `toml:"OracleStalenessLimit"`
	MaxPositionPct          uint64 `toml:"MaxPositionPct"`
	MinDiversifiedRiskScore uint64 `toml:"MinDiversifiedRiskScore"`
}

type Config struct {
	RPCAddress           string `toml:"RPCAddress"`
	Env                  string `toml:"Env"`
	AdminKeystorePath    string `toml:"AdminKeystorePath"`
	AdminAddress         string `toml:"AdminAddress"`
	CustodyAddress       string `toml:"CustodyAddress"`
	BlockIntervalSeconds uint64 `toml:"BlockIntervalSeconds"`
	MinOracleConfidence  uint64 `toml:"MinOracleConfidence"`
	Risk                 Risk   `toml:"risk"`
}

// Load loads the configuration from the given path, creating a default
// file (and a fresh administrator keystore) when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	if strings.TrimSpace(cfg.AdminAddress) == "" {
		if err := ensureAdminKeystore(path, cfg); err != nil {
			return nil, err
		}
	} else if _, err := crypto.DecodeAddress(cfg.AdminAddress); err != nil {
		return nil, fmt.Errorf("config: invalid AdminAddress: %w", err)
	}
	if _, err := crypto.DecodeAddress(cfg.CustodyAddress); err != nil {
		return nil, fmt.Errorf("config: invalid CustodyAddress: %w", err)
	}

	return cfg, nil
}

// Admin resolves the administrator identity from the configuration.
func (c *Config) Admin() (crypto.Address, error) {
	return crypto.DecodeAddress(c.AdminAddress)
}

// Custody resolves the protocol custody identity from the configuration.
func (c *Config) Custody() (crypto.Address, error) {
	return crypto.DecodeAddress(c.CustodyAddress)
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = "127.0.0.1:8645"
	}
	if cfg.BlockIntervalSeconds == 0 {
		cfg.BlockIntervalSeconds = 1
	}
	if cfg.MinOracleConfidence == 0 {
		cfg.MinOracleConfidence = 60
	}
	if strings.TrimSpace(cfg.CustodyAddress) == "" {
		custody := make([]byte, 20)
		custody[19] = 0x01
		cfg.CustodyAddress = crypto.NewAddress(crypto.VaultPrefix, custody).String()
	}
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if err := ensureAdminKeystore(path, cfg); err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ensureAdminKeystore derives the administrator address from the keystore
// file next to the configuration, generating a fresh key when absent.
func ensureAdminKeystore(configPath string, cfg *Config) error {
	keystorePath := strings.TrimSpace(cfg.AdminKeystorePath)
	if keystorePath == "" {
		keystorePath = defaultKeystorePath(configPath)
		cfg.AdminKeystorePath = keystorePath
	}

	if _, err := os.Stat(keystorePath); os.IsNotExist(err) {
		key, genErr := crypto.GeneratePrivateKey()
		if genErr != nil {
			return genErr
		}
		if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
			return err
		}
		cfg.AdminAddress = key.PubKey().Address().String()
		return nil
	}

	key, err := crypto.LoadFromKeystore(keystorePath, "")
	if err != nil {
		return fmt.Errorf("config: load admin keystore: %w", err)
	}
	cfg.AdminAddress = key.PubKey().Address().String()
	return nil
}

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	return filepath.Join(dir, "admin.keystore")
}
