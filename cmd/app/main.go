package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/leadbooking/config"
	"github.com/Domenick1991/leadbooking/internal/bootstrap"
	"github.com/Domenick1991/leadbooking/internal/calendly"
	"github.com/Domenick1991/leadbooking/internal/kafka"
	"github.com/Domenick1991/leadbooking/internal/logging"
	"github.com/Domenick1991/leadbooking/internal/repository"
	"github.com/Domenick1991/leadbooking/internal/security"
	"github.com/Domenick1991/leadbooking/internal/service/availability"
	"github.com/Domenick1991/leadbooking/internal/service/booking"
	"github.com/Domenick1991/leadbooking/internal/service/lead"
	"github.com/Domenick1991/leadbooking/internal/tokenstore"
	"github.com/gorilla/securecookie"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic("load config: " + err.Error())
	}

	log := logging.NewLogger(cfg.Env)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// token store: redis when configured, otherwise in-process
	var tokens tokenstore.Store
	if cfg.Redis.Enabled() {
		redisStore := tokenstore.NewRedisStore(cfg.Redis)
		defer redisStore.Close()
		tokens = redisStore
	} else {
		memStore := tokenstore.NewMemoryStore()
		memStore.StartJanitor(time.Minute)
		defer memStore.Close()
		tokens = memStore
	}

	provider := calendly.New(cfg.Provider)
	slotService := availability.NewService(
		provider,
		cfg.Booking.WindowDays,
		time.Duration(cfg.Booking.FetchBufferSec)*time.Second,
		log,
	)

	verifier := security.NewRecaptchaVerifier(cfg.Recaptcha.Secret, cfg.Recaptcha.MinScore, log)

	var leadOpts []lead.ServiceOption
	var bookingOpts []booking.ServiceOption

	if cfg.Database.Enabled() {
		pool, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			log.Fatal("connect postgres: " + err.Error())
		}
		defer pool.Close()
		leadRepo := repository.NewLeadRepository(pool)
		leadOpts = append(leadOpts, lead.WithLeadRepository(leadRepo))
		bookingOpts = append(bookingOpts, booking.WithLeadRepository(leadRepo))
	}

	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers)
		defer producer.Close()
		leadOpts = append(leadOpts, lead.WithProducer(producer, cfg.Kafka.LeadTopic, cfg.Kafka.NotificationsTopic))
		bookingOpts = append(bookingOpts, booking.WithProducer(producer, cfg.Kafka.LeadTopic, cfg.Kafka.NotificationsTopic))
	}

	if cfg.Booking.DisqualifyRedirectURL != "" {
		leadOpts = append(leadOpts, lead.WithDisqualifyRedirect(cfg.Booking.DisqualifyRedirectURL))
	}

	leadService := lead.NewService(
		slotService,
		tokens,
		verifier,
		time.Duration(cfg.Booking.TokenTTLMinutes)*time.Minute,
		log,
		leadOpts...,
	)
	bookingService := booking.NewService(
		provider,
		tokens,
		time.Duration(cfg.Booking.BookingBufferSec)*time.Second,
		log,
		bookingOpts...,
	)

	csrf := security.NewCSRFManager(
		csrfKey(cfg.Security.CSRFHashKey),
		csrfKey(cfg.Security.CSRFBlockKey),
		time.Duration(cfg.Security.CSRFTTLMinutes)*time.Minute,
		cfg.Security.SecureCookies,
	)

	if err := bootstrap.Run(ctx, cfg, csrf, leadService, bookingService, log); err != nil {
		log.Fatal("server error: " + err.Error())
	}
}

// csrfKey uses the configured key, or a boot-time random one when none is
// set (tokens then do not survive a restart, which is fine for dev).
func csrfKey(configured string) []byte {
	if configured != "" {
		return []byte(configured)
	}
	return securecookie.GenerateRandomKey(32)
}
