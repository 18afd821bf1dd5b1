package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autoeda/backend/go/internal/config"
	"autoeda/backend/go/internal/discovery/etcd"
	"autoeda/backend/go/internal/eda_service/api"
	"autoeda/backend/go/internal/eda_service/bootstrap"
	pkghttp "autoeda/backend/go/pkg/http"
	"autoeda/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var (
	configPath string
	devMode    bool
	addr       string
)

var rootCmd = &cobra.Command{
	Use:   "eda_api",
	Short: "Auto EDA & Storytelling API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "config file (default $EDA_CONFIG or config.yaml)")
	rootCmd.Flags().BoolVar(&devMode, "dev", false, "reload config and restart the listener when the config file changes")
	rootCmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides server.apiAddress")
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.AppConfig, *logger.Logger, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	if addr != "" {
		cfg.Server.APIAddress = addr
	}
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	return cfg, logger.New("eda_api", "", ""), nil
}

// run 启动服务；开发模式下配置文件变化时重新加载配置并重启监听。
func run(ctx context.Context) error {
	path := config.Path(configPath)

	reload := make(chan struct{}, 1)
	if devMode {
		go func() {
			err := config.Watch(ctx, path, 500*time.Millisecond, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
			if err != nil {
				fmt.Fprintln(os.Stderr, "config watch disabled:", err)
			}
		}()
	}

	for {
		cfg, log, err := loadConfig(path)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		srvCtx, cancel := context.WithCancel(ctx)
		errCh := make(chan error, 1)
		go func() { errCh <- serve(srvCtx, cfg, log) }()

		select {
		case <-ctx.Done():
			cancel()
			return <-errCh
		case err := <-errCh:
			cancel()
			return err
		case <-reload:
			log.Info("config changed, restarting listener")
			cancel()
			if err := <-errCh; err != nil {
				log.Error("server stopped with error: " + err.Error())
			}
		}
	}
}

func serve(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) error {
	app, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Warn("close resources: " + err.Error())
		}
	}()

	extra, err := pkghttp.Middlewares(cfg.Middleware)
	if err != nil {
		return err
	}
	router := api.SetupRouter(api.NewHandler(app.Service, cfg.Server.StaticDir, cfg.CORS.AllowedOrigins()), cfg, log, extra...)
	srv := pkghttp.NewServer(router, pkghttp.WithAddress(cfg.Server.APIAddress))

	if eps := cfg.Databases.Etcd.Endpoints; len(eps) > 0 {
		sd, err := etcd.NewServiceDiscovery(eps)
		if err != nil {
			log.Warn("etcd unavailable, skipping registration: " + err.Error())
		} else {
			defer sd.Close()
			if err := sd.Register(ctx, etcd.APIServiceName, cfg.Server.APIURL, cfg.Databases.Etcd.TTL); err != nil {
				log.Warn(err.Error())
			}
		}
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.WithPayload(map[string]interface{}{"addr": srv.Addr(), "queue": app.Service.QueueActive()}).Info("API listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	log.Info("API stopped")
	return <-errCh
}
