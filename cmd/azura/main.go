package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"azura/internal/action"
	"azura/internal/assistant"
	"azura/internal/config"
	"azura/internal/ipc"
	"azura/internal/proxy"
	"azura/internal/source"
	"azura/internal/tts"
	"azura/pkg/protocol"
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
	serverURL := cli.StringP("server", "s", "", "Classification server URL")
	useWS := cli.BoolP("ws", "w", false, "Classify over a persistent websocket")
	socket := cli.String("socket", "", "Control socket path")
	location := cli.String("location", "", "Default location for weather queries")
	proxyAddr := cli.StringP("proxy", "p", "", "Socks Proxy Address for weather requests")
	textOnly := cli.BoolP("text", "t", false, "Print responses instead of speaking them")
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
	if *serverURL != "" {
		cfg.Client.ServerURL = *serverURL
	}
	if *socket != "" {
		cfg.Client.Socket = *socket
	}
	if *location != "" {
		cfg.Assistant.Location = *location
	}
	if *proxyAddr != "" {
		cfg.Proxy = *proxyAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	classifier, closeFn, err := newClassifier(ctx, cfg, *useWS)
	if err != nil {
		log.Error("Failed to reach classification server", "url", cfg.Client.ServerURL, "err", err)
		os.Exit(1)
	}
	defer closeFn()

	httpClient, err := proxy.NewClient(cfg.Proxy, cfg.Client.Timeout)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", cfg.Proxy, "err", err)
		os.Exit(1)
	}

	weather := source.NewOpenWeatherMap(cfg.Weather.APIKey, httpClient)
	if cfg.Weather.BaseURL != "" {
		weather.BaseURL = cfg.Weather.BaseURL
	}
	if cfg.Weather.APIKey == "" {
		log.Warn("OPENWEATHER_API_KEY not set, weather queries will fail")
	}

	factory := action.Default(action.Deps{
		Weather:         weather,
		Clock:           source.NewSystemClock(),
		DefaultLocation: cfg.Assistant.Location,
	})
	log.Debug("Loaded actions", "intents", factory.Intents())

	a := assistant.New(classifier, factory, newSpeaker(cfg, *textOnly))

	srv, err := ipc.StartServer(cfg.Client.Socket, func(msg ipc.ControlMessage) ipc.Reply {
		switch msg.Cmd {
		case ipc.CmdTrigger:
			return handleTrigger(ctx, a, msg.Text)
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
			return ipc.Reply{Error: "unknown command " + msg.Cmd}
		}
	})
	if err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}
	defer srv.Close()

	log.Info("Boot up - successful", "socket", cfg.Client.Socket)

	<-ctx.Done()
	log.Info("Shutting down")
}

func handleTrigger(ctx context.Context, a *assistant.Assistant, text string) ipc.Reply {
	text = strings.TrimSpace(text)
	if text == "" {
		return ipc.Reply{Error: "empty utterance"}
	}

	res, err := a.Cycle(ctx, text)
	if err != nil {
		log.Error("Cycle failed", "err", err)
		return ipc.Reply{Text: res, Error: err.Error()}
	}
	return ipc.Reply{Text: res}
}

func newClassifier(ctx context.Context, cfg config.Config, useWS bool) (assistant.Classifier, func(), error) {
	if !useWS {
		return protocol.NewClient(cfg.Client.ServerURL, protocol.WithTimeout(cfg.Client.Timeout)), func() {}, nil
	}

	url := "ws" + strings.TrimPrefix(strings.TrimSuffix(cfg.Client.ServerURL, "/"), "http") + protocol.WSPath
	c, err := protocol.DialWS(ctx, url, cfg.Client.Timeout)
	if err != nil {
		return nil, nil, err
	}
	return c, func() { c.Close() }, nil
}

func newSpeaker(cfg config.Config, textOnly bool) tts.Speaker {
	if !textOnly {
		e := tts.NewEspeak(cfg.Assistant.Espeak, cfg.Assistant.Voice)
		if e.Available() {
			return e
		}
		log.Warn("espeak not found, printing responses", "binary", e.Binary)
	}
	return tts.Writer{W: os.Stdout}
}
