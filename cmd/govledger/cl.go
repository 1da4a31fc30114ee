package main

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/calehh/gov-ledger/app"
	app_config "github.com/calehh/gov-ledger/config"
	"github.com/calehh/gov-ledger/indexer"
	cmtconfig "github.com/cometbft/cometbft/config"
	cmtflags "github.com/cometbft/cometbft/libs/cli/flags"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	nm "github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var homeDir string

var clCmd = &cobra.Command{
	Use:   "govledger",
	Short: "govledger is a governance proposal ledger",
	Long: `A CometBFT chain recording governance proposals and their yes/no votes.
Run without a subcommand to start the node.`,
	Run: func(cmd *cobra.Command, args []string) {
		run(cmd, args)
	},
}

func init() {
	clCmd.Flags().StringVarP(&homeDir, "homedir", "d", "", "home directory")
}

func loadConfig(home string) (*app_config.Config, error) {
	appConfig := app_config.DefaultConfig(home)
	viper.SetConfigFile(filepath.Join(appConfig.RootDir, "config", "config.toml"))
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	viper.SetConfigFile(appConfig.AppConfigFile())
	if err := viper.MergeInConfig(); err != nil {
		return nil, fmt.Errorf("reading app config: %w", err)
	}
	if err := viper.Unmarshal(appConfig); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	appConfig.SetRoot(appConfig.App.Home)
	if err := appConfig.ValidateBasic(); err != nil {
		return nil, fmt.Errorf("invalid configuration data: %w", err)
	}
	return appConfig, nil
}

func startIndexer(ctx context.Context, appConfig *app_config.Config, logger cmtlog.Logger) (*indexer.ChainIndexer, error) {
	rpcUrl, err := url.Parse(appConfig.RPC.ListenAddress)
	if err != nil {
		return nil, err
	}
	rpcUrl.Scheme = "http"
	dbPath := appConfig.App.Indexer.DBPath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(appConfig.RootDir, dbPath)
	}
	idx, err := indexer.NewChainIndexer(logger, dbPath, rpcUrl.String())
	if err != nil {
		return nil, err
	}
	go idx.Start(ctx)
	svc := indexer.NewService(appConfig.App.Indexer.ListenAddr, idx)
	go func() {
		if err := svc.Start(); err != nil {
			logger.Error("indexer service stopped", "err", err)
		}
	}()
	return idx, nil
}

func run(cmd *cobra.Command, args []string) {
	appConfig, err := loadConfig(homeDir)
	if err != nil {
		log.Fatal(err)
	}

	pv := privval.LoadFilePV(
		appConfig.PrivValidatorKeyFile(),
		appConfig.PrivValidatorStateFile(),
	)

	nodeKey, err := p2p.LoadNodeKey(appConfig.NodeKeyFile())
	if err != nil {
		log.Fatalf("failed to load node's key: %v", err)
	}

	logger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout))
	logger, err = cmtflags.ParseLogLevel(appConfig.LogLevel, logger, cmtconfig.DefaultLogLevel)
	if err != nil {
		log.Fatalf("failed to parse log level: %v", err)
	}

	ledger, err := app.NewLedgerApp(appConfig.App, logger)
	if err != nil {
		log.Fatalf("new App err:%v", err)
	}

	node, err := nm.NewNode(
		appConfig.Config,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(ledger),
		nm.DefaultGenesisDocProviderFunc(appConfig.Config),
		cmtconfig.DefaultDBProvider,
		nm.DefaultMetricsProvider(appConfig.Instrumentation),
		logger,
	)
	if err != nil {
		log.Fatalf("Creating node: %v", err)
	}

	err = node.Start()
	if err != nil {
		log.Fatalf("start comet node err %s", err.Error())
	}

	ctx, cancel := context.WithCancel(context.Background())
	var idx *indexer.ChainIndexer
	if appConfig.App.Indexer.Enabled {
		idx, err = startIndexer(ctx, appConfig, logger)
		if err != nil {
			log.Fatalf("new chain indexer err %s", err.Error())
		}
	}

	defer func() {
		log.Println("shut down...")
		cancel()
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := node.Stop(); err != nil {
				log.Printf("stop comet node err %s", err.Error())
			}
			node.Wait()
			ledger.Stop()
			if idx != nil {
				if err := idx.Close(); err != nil {
					log.Printf("close indexer err %s", err.Error())
				}
			}
		}()
		timer := time.NewTimer(time.Second * 10)
		select {
		case <-timer.C:
			os.Exit(1)
		case <-done:
			return
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
}
