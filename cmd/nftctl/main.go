package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"nftwrapped/config"
	"nftwrapped/crypto/merkle"
	"nftwrapped/deploy"
	"nftwrapped/observability/logging"
	"nftwrapped/observability/metrics"
	"nftwrapped/rpc"
	"nftwrapped/storage"
)

const (
	deployCommand    = "deploy"
	whitelistCommand = "whitelist"
	serveCommand     = "serve"
	defaultConfig    = "./config.toml"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case deployCommand:
		err = runDeploy(os.Args[2:])
	case whitelistCommand:
		err = runWhitelist(os.Args[2:])
	case serveCommand:
		err = runServe(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: nftctl <command> [flags]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  %-10s deploy the bundle coordinator and both collections\n", deployCommand)
	fmt.Fprintf(os.Stderr, "  %-10s print the whitelist root and per-address proofs\n", whitelistCommand)
	fmt.Fprintf(os.Stderr, "  %-10s serve the query API\n", serveCommand)
}

func loadParams(path string) (*config.Config, *config.Params, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	params, err := cfg.Params()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, params, nil
}

func setupLogger(service string, cfg *config.Config) *slog.Logger {
	file := logging.RotatingFile(cfg.LogFile)
	if file == nil {
		return logging.Setup(service, cfg.Environment)
	}
	return logging.SetupWriter(io.MultiWriter(os.Stdout, file), service, cfg.Environment)
}

func openDatabase(cfg *config.Config) (storage.Database, error) {
	if cfg.DataDir == "" {
		return storage.NewMemDB(), nil
	}
	return storage.NewLevelDB(cfg.DataDir)
}

func openSystem(cfg *config.Config, params *config.Params, logger *slog.Logger) (*deploy.System, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	sys, err := deploy.New(db, params, deploy.Options{Logger: logger, Metrics: metrics.Minting()})
	if err != nil {
		db.Close()
		return nil, err
	}
	return sys, nil
}

func runDeploy(args []string) error {
	fs := flag.NewFlagSet(deployCommand, flag.ExitOnError)
	configPath := fs.String("config", defaultConfig, "Path to the deployment config file")
	fs.Parse(args)

	cfg, params, err := loadParams(*configPath)
	if err != nil {
		return err
	}
	logger := setupLogger("nftctl", cfg)
	sys, err := openSystem(cfg, params, logger)
	if err != nil {
		return err
	}
	defer sys.Close()

	addrs := sys.Addresses()
	fmt.Println("NFTWrappedBundle deployed to:", addrs.Bundle.Hex())
	fmt.Println("NFTWrapped deployed to:", addrs.Wrapped.Hex())
	fmt.Println("NFTWrappedLeaderboard deployed to:", addrs.Leaderboard.Hex())
	return nil
}

type whitelistOutput struct {
	Root   string              `json:"root"`
	Proofs map[string][]string `json:"proofs"`
}

func runWhitelist(args []string) error {
	fs := flag.NewFlagSet(whitelistCommand, flag.ExitOnError)
	configPath := fs.String("config", defaultConfig, "Path to the deployment config file")
	fs.Parse(args)

	_, params, err := loadParams(*configPath)
	if err != nil {
		return err
	}
	tree := merkle.NewTree(params.Whitelist)
	out := whitelistOutput{Root: tree.Root().Hex(), Proofs: make(map[string][]string, len(params.Whitelist))}
	for _, addr := range params.Whitelist {
		proof, _ := tree.Proof(addr)
		hexProof := make([]string, len(proof))
		for i, node := range proof {
			hexProof[i] = node.Hex()
		}
		out.Proofs[addr.Hex()] = hexProof
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runServe(args []string) error {
	fs := flag.NewFlagSet(serveCommand, flag.ExitOnError)
	configPath := fs.String("config", defaultConfig, "Path to the deployment config file")
	listen := fs.String("listen", "", "Override the RPCAddress from the config file")
	fs.Parse(args)

	cfg, params, err := loadParams(*configPath)
	if err != nil {
		return err
	}
	logger := setupLogger("nftd", cfg)
	sys, err := openSystem(cfg, params, logger)
	if err != nil {
		return err
	}
	defer sys.Close()

	srv, err := rpc.New(rpc.Config{
		Backend: sys,
		Logger:  logger,
		RateLimit: rpc.RateLimit{
			RequestsPerMinute: cfg.RPCRequestsPerMinute,
			Burst:             cfg.RPCBurst,
		},
	})
	if err != nil {
		return err
	}
	addr := cfg.RPCAddress
	if *listen != "" {
		addr = *listen
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, addr)
}
