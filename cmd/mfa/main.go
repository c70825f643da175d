package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-mfa/pkg/app"
	"github.com/tendant/simple-mfa/pkg/auth"
	"github.com/tendant/simple-mfa/pkg/emailotp"
	"github.com/tendant/simple-mfa/pkg/notification"
	"github.com/tendant/simple-mfa/pkg/password"
	"github.com/tendant/simple-mfa/pkg/tokengenerator"
	"github.com/tendant/simple-mfa/pkg/twofa"
	"github.com/tendant/simple-mfa/pkg/user"
)

type DbConfig struct {
	Host     string `env:"MFA_PG_HOST" env-default:"localhost"`
	Port     uint16 `env:"MFA_PG_PORT" env-default:"5432"`
	Database string `env:"MFA_PG_DATABASE" env-default:"mfa_db"`
	User     string `env:"MFA_PG_USER" env-default:"mfa"`
	Password string `env:"MFA_PG_PASSWORD" env-default:"pwd"`
}

func (d DbConfig) toConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s", d.User, d.Password, d.Host, d.Port, d.Database)
}

type JwtConfig struct {
	JwtSecret string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
	Issuer    string `env:"JWT_ISSUER" env-default:"simple-mfa"`
}

type SmtpConfig struct {
	Host     string `env:"SMTP_HOST" env-default:""`
	Port     int    `env:"SMTP_PORT" env-default:"587"`
	TLS      bool   `env:"SMTP_TLS" env-default:"true"`
	Username string `env:"SMTP_USERNAME" env-default:""`
	Password string `env:"SMTP_PASSWORD" env-default:""`
	From     string `env:"SMTP_FROM" env-default:"no-reply@example.com"`
}

type Config struct {
	AppConfig  app.AppConfig
	DbConfig   DbConfig
	JwtConfig  JwtConfig
	SmtpConfig SmtpConfig

	// "postgres" or "inmem"; inmem keeps everything in process for demos
	PersistenceType string `env:"PERSISTENCE_TYPE" env-default:"inmem"`
	TotpIssuer      string `env:"TOTP_ISSUER" env-default:"simple-mfa"`
}

func main() {
	config := Config{}
	cleanenv.ReadEnv(&config)

	var userRepo user.Repository
	var codeRepo emailotp.CodeRepository

	switch config.PersistenceType {
	case "postgres", "postgresql":
		pool, err := pgxpool.New(context.Background(), config.DbConfig.toConnString())
		if err != nil {
			slog.Error("Failed creating dbpool", "db", config.DbConfig.Database, "host", config.DbConfig.Host, "err", err)
			os.Exit(-1)
		}
		userRepo = user.NewPostgresRepository(pool)
		codeRepo = emailotp.NewPostgresCodeRepository(pool)
	case "inmem":
		userRepo = user.NewInMemRepository()
		codeRepo = emailotp.NewInMemCodeRepository()
	default:
		slog.Error("Unsupported persistence type", "type", config.PersistenceType)
		os.Exit(-1)
	}

	// OTP delivery: SMTP when configured, process log otherwise
	var notifier notification.Notifier
	if config.SmtpConfig.Host != "" {
		emailNotifier, err := notification.NewEmailNotifier(notification.SMTPConfig{
			Host:     config.SmtpConfig.Host,
			Port:     config.SmtpConfig.Port,
			TLS:      config.SmtpConfig.TLS,
			Username: config.SmtpConfig.Username,
			Password: config.SmtpConfig.Password,
			From:     config.SmtpConfig.From,
		})
		if err != nil {
			slog.Error("Failed creating email notifier", "err", err)
			os.Exit(-1)
		}
		notifier = emailNotifier
	} else {
		slog.Info("No SMTP host configured, passcodes are logged to console")
		notifier = notification.NewConsoleNotifier()
	}

	hasher := password.NewBcryptHasher()
	tokenGenerator := tokengenerator.NewJwtTokenGenerator(config.JwtConfig.JwtSecret, config.JwtConfig.Issuer)
	totpService := twofa.NewTotpService(userRepo, twofa.WithIssuer(config.TotpIssuer))
	otpService := emailotp.NewService(codeRepo, hasher)

	authService := auth.NewAuthService(userRepo, hasher, tokenGenerator, totpService, otpService, notifier)
	authHandle := auth.NewHandle(authService, tokenGenerator)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Mount("/api", auth.Routes(authHandle))

	addr := config.AppConfig.Addr()
	slog.Info("Starting server", "addr", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		slog.Error("Server stopped", "err", err)
		os.Exit(-1)
	}
}
