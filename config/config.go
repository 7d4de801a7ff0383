// Package config resolves node startup parameters from positional CLI
// flags, a --key_location flag, and environment variables (optionally
// loaded from a .env file), flags taking precedence (spec.md §6).
package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the fully resolved set of parameters a node starts with.
type Config struct {
	WebPort     int      `envconfig:"WEB_PORT"`
	P2PPort     int      `envconfig:"P2P_PORT"`
	KeyLocation string   `envconfig:"KEY_LOCATION" default:"wallet/private_key"`
	Peers       []string `envconfig:"PEERS"`
}

// envPrefix namespaces every environment variable this node reads.
const envPrefix = "PYNCOIN"

// Load resolves Config from args (typically os.Args[1:]): the first two
// positional arguments are the HTTP and P2P ports, --key_location
// overrides the wallet key path, and any value not supplied on the
// command line falls back to PYNCOIN_* environment variables (loaded
// from a .env file in the working directory, if present).
func Load(args []string) (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config from environment: %w", err)
	}

	fs := flag.NewFlagSet("pyncoin", flag.ContinueOnError)
	keyLocation := fs.String("key_location", "", "path to the node's private key PEM file")
	peers := fs.String("peers", "", "comma-separated list of host:port peers to dial on startup")
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}

	positional := fs.Args()
	if len(positional) == 0 && cfg.WebPort != 0 && cfg.P2PPort != 0 {
		// Both ports come from PYNCOIN_WEB_PORT and PYNCOIN_P2P_PORT.
		positional = []string{strconv.Itoa(cfg.WebPort), strconv.Itoa(cfg.P2PPort)}
	}
	if len(positional) < 2 {
		return Config{}, fmt.Errorf("usage: pyncoin <web_port> <p2p_port> [--key_location PATH] [--peers host:port,...]")
	}
	webPort, err := strconv.Atoi(positional[0])
	if err != nil {
		return Config{}, fmt.Errorf("invalid web_port %q: %w", positional[0], err)
	}
	p2pPort, err := strconv.Atoi(positional[1])
	if err != nil {
		return Config{}, fmt.Errorf("invalid p2p_port %q: %w", positional[1], err)
	}
	cfg.WebPort = webPort
	cfg.P2PPort = p2pPort

	// Flag parsing stops at the first positional argument, so flags written
	// after the two ports are parsed here.
	if err := fs.Parse(positional[2:]); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}

	if *keyLocation != "" {
		cfg.KeyLocation = *keyLocation
	}
	if *peers != "" {
		cfg.Peers = strings.Split(*peers, ",")
	}
	return cfg, nil
}
