package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/shellbridge/authflow/internal"
	"github.com/shellbridge/authflow/internal/config"
	"github.com/shellbridge/authflow/internal/log"
)

var BuildVersion = "dev"

func generateDefaultConfig(path string) error {
	defaultConfig := map[string]any{
		"version": "v1",
		"app": map[string]any{
			"baseUrl":      "https://app.yourcompany.com",
			"addr":         ":8080",
			"nativeScheme": "yourapp",
		},
		"auth": map[string]any{
			"provider":         "oauth",
			"authorizationUrl": "https://idp.yourcompany.com/authorize",
			"tokenUrl":         "https://idp.yourcompany.com/token",
			"userInfoUrl":      "https://idp.yourcompany.com/userinfo",
			"clientId":         map[string]string{"$env": "OAUTH_CLIENT_ID"},
			"clientSecret":     map[string]string{"$env": "OAUTH_CLIENT_SECRET"},
			"scopes":           []string{"openid", "email", "profile"},
			"storage":          "memory",
		},
		"demoIdp": map[string]any{
			"enabled": false,
			"addr":    ":9090",
		},
	}

	data, err := json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func main() {
	conf := flag.String("config", "", "path to config file (required)")
	version := flag.Bool("version", false, "print version and exit")
	help := flag.Bool("help", false, "print help and exit")
	configInit := flag.String("config-init", "", "generate default config file at specified path")
	validate := flag.Bool("validate", false, "validate config file and exit")
	flag.Parse()
	if *help {
		flag.Usage()
		return
	}
	if *version {
		fmt.Println(BuildVersion)
		return
	}
	if *configInit != "" {
		if err := generateDefaultConfig(*configInit); err != nil {
			log.LogError("Failed to generate config: %v", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default config at: %s\n", *configInit)
		return
	}

	if *conf == "" {
		fmt.Fprintf(os.Stderr, "Error: -config flag is required\n")
		fmt.Fprintf(os.Stderr, "Run with -help for usage information\n")
		os.Exit(1)
	}

	cfg, err := config.Load(*conf)
	if err != nil {
		log.LogError("Failed to load config: %v", err)
		os.Exit(1)
	}

	if *validate {
		fmt.Println("Config OK")
		return
	}

	log.LogInfoWithFields("main", "Starting authflow", map[string]any{
		"version": BuildVersion,
		"config":  *conf,
	})

	ctx := context.Background()
	app, err := internal.New(ctx, cfg)
	if err != nil {
		log.LogError("Failed to build application: %v", err)
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		log.LogError("Application error: %v", err)
		os.Exit(1)
	}
}
