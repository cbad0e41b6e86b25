package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/ikitai/internal/config"
	"github.com/hitoshi/ikitai/internal/filestore"
	"github.com/hitoshi/ikitai/internal/handler"
	"github.com/hitoshi/ikitai/internal/logger"
	"github.com/hitoshi/ikitai/internal/metrics"
	"github.com/hitoshi/ikitai/internal/middleware"
	"github.com/hitoshi/ikitai/internal/security"
	"github.com/hitoshi/ikitai/internal/sheets"
	"github.com/hitoshi/ikitai/internal/store"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("data_dir", cfg.DataDir),
		slog.Bool("sheets_mirror", cfg.SheetsConfigured()),
	)

	return runServe(cfg)
}

// runServe はAPIサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. セキュリティサービスの初期化
	urlGuard := security.NewURLGuard()
	sanitizer := security.NewTextSanitizer()

	// ブリッジURLが設定されている場合は起動時に安全性を検証する
	if cfg.BridgeURL != "" {
		if err := urlGuard.ValidateURL(cfg.BridgeURL); err != nil {
			return fmt.Errorf("bridge URL validation failed: %w", err)
		}
	}

	// 2. ストレージ層の初期化
	files := filestore.New(cfg.DataDir, slog.Default())

	var sheetsAdapter store.SheetsAdapter
	if cfg.SheetsConfigured() {
		sheetsClient := sheets.NewClient(
			urlGuard.NewSafeClient(cfg.SheetsTimeout, cfg.SheetsMaxSize),
			slog.Default(),
			cfg.SheetID,
			cfg.BridgeURL,
			cfg.SheetsMaxSize,
		)
		sheetsAdapter = sheetsClient
		slog.Info("Google Sheets mirror enabled",
			slog.String("sheet_id", maskSheetID(cfg.SheetID)),
		)
	} else {
		slog.Info("Google Sheets mirror disabled, using file store only")
	}

	// Driveアーカイブミラーは外部スクリプトが担当するため、ここでは設定の存在だけ記録する
	if cfg.BackupFileID != "" {
		slog.Info("backup archive mirror configured",
			slog.String("backup_file_id", maskSheetID(cfg.BackupFileID)),
		)
	}

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. ドメインサービスの初期化
	storeService := store.NewService(files, sheetsAdapter, urlGuard, sanitizer, collector, slog.Default())

	// 5. ルーターの構築
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	// configのRateLimitGeneralはreq/min単位なのでreq/secに変換する
	if cfg.RateLimitGeneral > 0 {
		rateLimiterCfg.Rate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
		rateLimiterCfg.Burst = cfg.RateLimitGeneral
	}
	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		StoreService:      storeService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		MetricsRecorder:   collector,
		Gatherer:          registry,
	}

	router := handler.NewRouter(deps)

	// 6. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskSheetID はログ出力用にIDの末尾以外をマスクする。
func maskSheetID(id string) string {
	if len(id) <= 6 {
		return "***"
	}
	return "***" + id[len(id)-6:]
}
