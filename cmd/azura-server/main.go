package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"azura/internal/config"
	"azura/internal/ner"
	"azura/internal/proxy"
	"azura/internal/server"
	"azura/internal/service"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	configFile := cli.StringP("config", "c", "", "YAML config path")
	addr := cli.StringP("addr", "a", "", "Listen address")
	modelDir := cli.StringP("model", "m", "", "Model bundle directory")
	dataPath := cli.StringP("data", "d", "", "Training corpus (CSV with sentence,intent)")
	retrain := cli.BoolP("retrain", "r", false, "Retrain even if a bundle exists")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks Proxy Address for OpenAI")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	godotenv.Load(*envFile)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Error("Failed to load config", "err", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *modelDir != "" {
		cfg.Model.Dir = *modelDir
	}
	if *dataPath != "" {
		cfg.Model.DataPath = *dataPath
	}
	if *retrain {
		cfg.Model.Retrain = true
	}
	if *proxyAddr != "" {
		cfg.Proxy = *proxyAddr
	}

	extractor, err := newExtractor(cfg)
	if err != nil {
		log.Error("Failed to set up entity extraction", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := service.New(service.Config{
		ModelDir: cfg.Model.Dir,
		DataPath: cfg.Model.DataPath,
		Retrain:  cfg.Model.Retrain,
		Train:    cfg.TrainOptions(),
	}, extractor)

	if err := svc.Start(ctx); err != nil {
		log.Error("Failed to start classifier", "err", err)
		os.Exit(1)
	}

	log.Info("Boot up - successful")

	srv := server.New(svc, server.Options{MaxConcurrent: cfg.Server.MaxConcurrent})
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("Server failed", "err", err)
		os.Exit(1)
	}
}

// newExtractor prefers the OpenAI extractor when a key is configured and
// always keeps the gazetteer as the fallback.
func newExtractor(cfg config.Config) (ner.Extractor, error) {
	gaz := ner.NewGazetteer(nil)
	if cfg.OpenAI.APIKey == "" {
		log.Info("OPENAI_API_KEY not set, using gazetteer entities only")
		return gaz, nil
	}

	httpClient, err := proxy.NewClient(cfg.Proxy, 0)
	if err != nil {
		return nil, err
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.OpenAI.APIKey),
		option.WithHTTPClient(httpClient),
	)
	log.Debug("Loaded OpenAI client", "proxy", cfg.Proxy)

	return ner.Chain{ner.NewOpenAIExtractor(client, cfg.OpenAI.Model), gaz}, nil
}
