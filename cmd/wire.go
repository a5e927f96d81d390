package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	tomldir "github.com/yaahc/scdoall-rewrite/internal/adapters/directory/toml"
	sshtransport "github.com/yaahc/scdoall-rewrite/internal/adapters/transport/ssh"
	"github.com/yaahc/scdoall-rewrite/internal/ports"
)

type app struct {
	directory ports.NodeDirectory
	transport ports.Transport
	logger    *slog.Logger
	logLevel  *slog.LevelVar
}

func wireApp() (*app, error) {
	cfg := viper.New()

	directory, err := tomldir.NewRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire node directory: %w", err)
	}

	cfg.SetDefault("ssh.user", os.Getenv("USER"))
	cfg.SetDefault("ssh.key_path", defaultKeyPath())

	logLevel := &slog.LevelVar{}
	logLevel.Set(slog.LevelWarn)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	transport := sshtransport.NewTransport(sshtransport.Config{
		User:          cfg.GetString("ssh.user"),
		KeyPath:       cfg.GetString("ssh.key_path"),
		KeyPassphrase: cfg.GetString("ssh.key_passphrase"),
		Password:      cfg.GetString("ssh.password"),
	}, logger)

	return &app{
		directory: directory,
		transport: transport,
		logger:    logger,
		logLevel:  logLevel,
	}, nil
}

// defaultKeyPath picks the first conventional private key present so a bare
// config still authenticates on a typical workstation.
func defaultKeyPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	for _, name := range []string{"id_ed25519", "id_rsa"} {
		path := filepath.Join(homeDir, ".ssh", name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
