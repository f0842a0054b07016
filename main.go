package main

import (
	"context"
	"os"
	"os/signal"
	"retouchbot/internal/adapters/converter"
	"retouchbot/internal/adapters/editor"
	"retouchbot/internal/adapters/file"
	"retouchbot/internal/adapters/generator"
	"retouchbot/internal/adapters/handler"
	"retouchbot/internal/adapters/preview"
	"retouchbot/internal/adapters/sender"
	"retouchbot/internal/core/domain/command"
	"retouchbot/internal/core/service"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/rs/zerolog"

	"github.com/go-telegram/bot"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

func main() {
	log.Info().Msg("starting retouchbot...")

	viper.AddConfigPath(".")
	viper.SetConfigType("toml")

	log.Info().Msg("reading config file...")
	err := viper.ReadInConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("could not read config file")
	}

	var logLevel zerolog.Level

	switch viper.GetString("bot.log_level") {
	case "info":
		logLevel = zerolog.InfoLevel
	case "debug":
		logLevel = zerolog.DebugLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	token := viper.GetString("telegram.bot_token")
	opts := []bot.Option{
		bot.WithDefaultHandler(noOpHandler),
	}

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Panic().Err(err).Msg("failed initializing telegram bot")
	}

	s := sender.NewTelegram(b)

	previews, err := preview.NewFileStore(viper.GetString("session.preview_dir"))
	if err != nil {
		log.Panic().Err(err).Msg("failed initializing preview store")
	}

	httpEditor := editor.NewHTTPEditor(viper.GetString("edit.api_url"), viper.GetString("edit.api_key"))

	imagingConverter := converter.NewImagingConverter(viper.GetInt("image.max_edge"))

	downloader := file.NewDownloader()

	describer := generator.NewOpenRouter(viper.GetString("openrouter.api_key"),
		viper.GetString("describe.model"),
		viper.GetString("describe.system_prompt"))

	authorizer, err := service.NewAuthorizer(s)
	if err != nil {
		log.Panic().Err(err).Msg("failed initializing authorizer")
	}

	tracker := service.NewUsageTracker(ctx, s)

	window, err := time.ParseDuration(viper.GetString("limits.window"))
	if err != nil {
		log.Panic().Err(err).Msg("invalid rate limit window in config")
	}

	limiter := service.NewRateLimiter(viper.GetInt("limits.edits_per_window"), window)

	sessionTTL, err := time.ParseDuration(viper.GetString("session.ttl"))
	if err != nil {
		log.Panic().Err(err).Msg("invalid session ttl in config")
	}

	sessions := service.NewSessionManager(func(chatID int64) *service.Session {
		return service.NewSession(chatID, previews, httpEditor)
	}, sessionTTL)

	commandRegistry := &command.Registry{}

	commandRegistry.Register(command.NewPick(sessions, downloader, imagingConverter, s, "/pick"))
	commandRegistry.Register(command.NewPrompt(sessions, s, "/prompt"))
	commandRegistry.Register(command.NewEdit(command.EditParams{
		Sessions:    sessions,
		Previews:    previews,
		Fetcher:     downloader,
		Converter:   imagingConverter,
		ImageSender: s,
		TextSender:  s,
		Limiter:     limiter,
		Track:       tracker,
		Command:     "/edit",
	}))
	commandRegistry.Register(command.NewDescribe(command.DescribeParams{
		Sessions:   sessions,
		Fetcher:    downloader,
		Converter:  imagingConverter,
		Describer:  describer,
		TextSender: s,
		Track:      tracker,
		Command:    "/describe",
	}))
	commandRegistry.Register(command.NewDownload(sessions, previews, s, s, "/download"))
	commandRegistry.Register(command.NewStatus(sessions, tracker, s, "/status"))
	commandRegistry.Register(command.NewReset(sessions, s, "/reset"))
	commandRegistry.Register(command.NewHelp(commandRegistry, s, "/help"))

	handlerTimeout, err := time.ParseDuration(viper.GetString("handler.timeout"))
	if err != nil {
		log.Panic().Err(err).Msg("invalid timeout for handler in config")
	}

	commandHandler := handler.NewCommand(commandRegistry, authorizer, handlerTimeout)

	b.RegisterHandler(bot.HandlerTypeMessageText, "/", bot.MatchTypePrefix, commandHandler.Handle)
	b.RegisterHandler(bot.HandlerTypePhotoCaption, "/", bot.MatchTypePrefix, commandHandler.Handle)

	log.Info().Msg("bot listening")
	b.Start(ctx)

	sessions.Close()
}

func noOpHandler(_ context.Context, _ *bot.Bot, _ *models.Update) {}
