package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
)

type IndexerConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ListenAddr string `mapstructure:"listen_addr"`
	DBPath     string `mapstructure:"db_path"`
}

type LedgerAppConfig struct {
	Home string `mapstructure:"-"`

	// RegistryUrl enables the registry admission gate when set.
	RegistryUrl     string        `mapstructure:"registry_url"`
	RegistryTimeout time.Duration `mapstructure:"registry_timeout"`
	// BridgeGateway enables the cross-chain attestation gate when set.
	BridgeGateway string `mapstructure:"bridge_gateway"`

	Indexer IndexerConfig `mapstructure:"indexer"`
}

func DefaultLedgerAppConfig(home string) *LedgerAppConfig {
	return &LedgerAppConfig{
		Home:            home,
		RegistryTimeout: 3 * time.Second,
		Indexer: IndexerConfig{
			Enabled:    false,
			ListenAddr: "127.0.0.1:8080",
			DBPath:     "indexer.db",
		},
	}
}

func (c *LedgerAppConfig) DataDir() string {
	return filepath.Join(c.Home, "data")
}

func (c *LedgerAppConfig) ValidateBasic() error {
	if c.RegistryUrl != "" && c.RegistryTimeout <= 0 {
		return fmt.Errorf("registry_timeout must be positive")
	}
	if c.Indexer.Enabled && c.Indexer.ListenAddr == "" {
		return fmt.Errorf("indexer.listen_addr is required when the indexer is enabled")
	}
	return nil
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *LedgerAppConfig `mapstructure:"app"`
}

func defaultHome(home string) string {
	if len(home) == 0 {
		home = os.ExpandEnv("$HOME/.govledger")
	}
	return home
}

func DefaultConfig(home string) *Config {
	home = defaultHome(home)
	config := &Config{
		DefaultLedgerCometConfig(),
		DefaultLedgerAppConfig(home),
	}
	config.SetRoot(home)
	_ = os.MkdirAll(filepath.Join(home, "config"), 0755)
	return config
}

func (c *Config) ValidateBasic() error {
	if err := c.Config.ValidateBasic(); err != nil {
		return err
	}
	return c.App.ValidateBasic()
}

func (c *Config) AppConfigFile() string {
	return filepath.Join(c.RootDir, "config", "app.toml")
}

func InitializeNodeValidatorFiles(config *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func DefaultLedgerCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 3
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	return cometConfig
}
