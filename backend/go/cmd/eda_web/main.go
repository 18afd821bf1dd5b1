package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autoeda/backend/go/internal/config"
	"autoeda/backend/go/internal/discovery/etcd"
	"autoeda/backend/go/internal/web_ui"
	pkghttp "autoeda/backend/go/pkg/http"
	"autoeda/backend/go/pkg/logger"

	"github.com/spf13/cobra"
)

// apiTimeout 覆盖一次同步生成报告所需的时间。
const apiTimeout = 120 * time.Second

var (
	configPath string
	addr       string
	apiURL     string
)

var rootCmd = &cobra.Command{
	Use:          "eda_web",
	Short:        "Auto EDA & Storytelling web UI",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx)
	},
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "config file (default $EDA_CONFIG or config.yaml)")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.uiAddress")
	rootCmd.Flags().StringVar(&apiURL, "api-url", "", "API base URL, overrides server.apiURL")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig(config.Path(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if addr != "" {
		cfg.Server.UIAddress = addr
	}
	if apiURL != "" {
		cfg.Server.APIURL = apiURL
	}
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	log := logger.New("eda_web", "", "")

	var discoverer etcd.Discoverer
	if eps := cfg.Databases.Etcd.Endpoints; len(eps) > 0 && apiURL == "" {
		sd, err := etcd.NewServiceDiscovery(eps)
		if err != nil {
			log.Warn("etcd unavailable, using configured API URL: " + err.Error())
		} else {
			defer sd.Close()
			discoverer = sd
		}
	}
	baseURL := func() string {
		dctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return etcd.ResolveURL(dctx, discoverer, etcd.APIServiceName, cfg.Server.APIURL)
	}

	client, err := pkghttp.NewClient(cfg.Middleware.CircuitBreaker, apiTimeout)
	if err != nil {
		return err
	}
	ui := web_ui.New(web_ui.NewAPIClient(baseURL, client), log)
	srv := pkghttp.NewServer(ui.Router(), pkghttp.WithAddress(cfg.Server.UIAddress))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.WithPayload(map[string]interface{}{"addr": srv.Addr(), "api": cfg.Server.APIURL}).Info("UI listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
