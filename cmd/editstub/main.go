// Command editstub serves a local stand-in for the image edit API. It
// accepts the same multipart request the bot sends and answers with a
// deterministic transformation of the uploaded image, so the whole bot can
// be exercised end to end without an upstream account.
package main

import (
	"bytes"
	"context"
	"errors"
	"hash/fnv"
	"image"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"retouchbot/internal/core/service"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	blurSigma     = 2.0
	contrastBoost = 20
)

func main() {
	log.Info().Msg("starting edit stub...")

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

	window, err := time.ParseDuration(viper.GetString("stub.window"))
	if err != nil {
		log.Panic().Err(err).Msg("invalid rate limit window in config")
	}

	limiter := service.NewRateLimiter(viper.GetInt("stub.requests_per_window"), window)

	addr := viper.GetString("stub.addr")
	if addr == "" {
		addr = ":5050"
	}

	gin.SetMode(gin.ReleaseMode)

	srv := &http.Server{
		Addr:           addr,
		Handler:        newRouter(limiter),
		MaxHeaderBytes: 1 << 20,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("edit stub server failed")
		}
	}()

	log.Info().Str("addr", addr).Msg("edit stub listening")

	<-ctx.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error shutting down edit stub")
	}

	log.Info().Msg("edit stub stopped")
}

func newRouter(limiter service.Limiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(accessLog())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/v1/edit", rateLimit(limiter), handleEdit)

	return router
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)

		event := log.Info()
		if c.Writer.Status() >= http.StatusBadRequest {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("clientIp", c.ClientIP()).
			Msg("request handled")
	}
}

func rateLimit(limiter service.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter := limiter.Allow(c.ClientIP())
		if !ok {
			seconds := int((retryAfter + time.Second - 1) / time.Second)
			if seconds < 1 {
				seconds = 1
			}

			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "too many requests"})
			return
		}

		c.Next()
	}
}

func handleEdit(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "image file is required"})
		return
	}

	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "file is not an image"})
		return
	}

	prompt := strings.TrimSpace(c.PostForm("prompt"))
	if prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "prompt is required"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "could not read upload"})
		return
	}

	defer f.Close()

	img, err := imaging.Decode(f)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "could not decode image"})
		return
	}

	name, apply := effectFor(prompt)
	out := apply(img)

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, out, imaging.PNG); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "could not encode result"})
		return
	}

	log.Debug().Str("effect", name).Int("bytes", buf.Len()).Msg("edit applied")

	c.Header("X-Edit-Effect", name)
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

var effects = []struct {
	name  string
	apply func(image.Image) *image.NRGBA
}{
	{"grayscale", imaging.Grayscale},
	{"invert", imaging.Invert},
	{"blur", func(img image.Image) *image.NRGBA { return imaging.Blur(img, blurSigma) }},
	{"contrast", func(img image.Image) *image.NRGBA { return imaging.AdjustContrast(img, contrastBoost) }},
}

// effectFor maps an instruction to one of the canned effects. Recognized
// keywords pick the matching effect, anything else hashes to a stable one
// so repeating a prompt always yields the same output.
func effectFor(prompt string) (string, func(image.Image) *image.NRGBA) {
	p := strings.ToLower(prompt)

	switch {
	case strings.Contains(p, "gray"), strings.Contains(p, "grey"), strings.Contains(p, "black and white"):
		return effects[0].name, effects[0].apply
	case strings.Contains(p, "invert"), strings.Contains(p, "negative"):
		return effects[1].name, effects[1].apply
	case strings.Contains(p, "blur"), strings.Contains(p, "soft"):
		return effects[2].name, effects[2].apply
	case strings.Contains(p, "contrast"), strings.Contains(p, "sharp"):
		return effects[3].name, effects[3].apply
	}

	h := fnv.New32a()
	h.Write([]byte(p))
	e := effects[h.Sum32()%uint32(len(effects))]

	return e.name, e.apply
}
