package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/zora-digital/tripweaver/config"
	srv "github.com/zora-digital/tripweaver/internal/server"
)

func main() {
	var root = &cobra.Command{Use: "tripweaver"}

	var serveAddr string
	var cfgPath string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the trip planning HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if serveAddr == "" {
				serveAddr = os.Getenv("TRIPWEAVER_HTTP_ADDR")
			}
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			return srv.Run(cfg, serveAddr)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serve.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default ./config/config.json)")

	var checkCfgPath string
	var check = &cobra.Command{
		Use:   "config-check",
		Short: "Load and validate the configuration, then exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(checkCfgPath)
			if err != nil {
				return err
			}
			fmt.Printf("config ok: listen=%s model=%s storage=%s\n",
				cfg.General.Listen, cfg.Providers.OpenAI.Model, cfg.Storage.Backend)
			return nil
		},
	}
	check.Flags().StringVarP(&checkCfgPath, "config", "c", "", "config file (default ./config/config.json)")

	root.AddCommand(serve, check)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
