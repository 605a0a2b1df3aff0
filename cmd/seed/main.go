// Command seed loads Cairo Metro Line 1 and an admin account. Running it
// again only fills in what is missing.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"cairo-metro-ticketing/internal/config"
	"cairo-metro-ticketing/internal/domain"
	"cairo-metro-ticketing/internal/domain/model"
	pg "cairo-metro-ticketing/internal/infra/db/postgres"
	"cairo-metro-ticketing/internal/infra/logging"
	"cairo-metro-ticketing/internal/infra/security"
	"cairo-metro-ticketing/internal/usecase"
)

const line1Name = "Line 1"

// line1 runs Helwan to New El-Marg.
var line1 = []string{
	"Helwan", "Ain Helwan", "Helwan University", "Wadi Hof", "Hadayek Helwan",
	"El-Maasara", "Tora El-Asmant", "Kozzika", "Tora El-Balad", "Sakanat El-Maadi",
	"Maadi", "Hadayek El-Maadi", "Dar El-Salam", "El-Zahraa", "Mar Girgis",
	"El-Malek El-Saleh", "Al-Sayeda Zeinab", "Saad Zaghloul", "Sadat", "Nasser",
	"Orabi", "Al-Shohadaa", "Ghamra", "El-Demerdash", "Manshiet El-Sadr",
	"Kobri El-Qobba", "Hammamat El-Qobba", "Saray El-Qobba", "Hadayek El-Zaitoun", "Helmeyet El-Zaitoun",
	"El-Matareyya", "Ain Shams", "Ezbet El-Nakhl", "El-Marg", "New El-Marg",
}

// zoneFor splits the line into six roughly equal fare zones.
func zoneFor(order int) int {
	z := (order-1)/6 + 1
	if z > model.MaxZoneCoverage {
		z = model.MaxZoneCoverage
	}
	return z
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "developer mode")
	adminUser := flag.String("admin-username", "admin", "admin account username")
	adminPhone := flag.String("admin-phone", "+201000000000", "admin account phone (E.164)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)

	stationUC := usecase.NewStationUseCase(pg.NewPostgresLineRepo(pool), pg.NewPostgresStationRepo(pool), logger)

	line, err := stationUC.CreateLine(ctx, line1Name, "blue", "Helwan - New El-Marg")
	if errors.Is(err, domain.ErrAlreadyExists) {
		line, err = findLine(ctx, stationUC, line1Name)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("line")
	}

	created := 0
	for i, name := range line1 {
		order := i + 1
		_, err := stationUC.CreateStation(ctx, name, zoneFor(order), line.ID, order)
		switch {
		case err == nil:
			created++
		case errors.Is(err, domain.ErrAlreadyExists):
		default:
			logger.Fatal().Err(err).Str("station", name).Msg("station")
		}
	}
	logger.Info().Str("line_id", line.ID).Int("created", created).Int("total", len(line1)).Msg("stations seeded")

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		logger.Warn().Msg("SEED_ADMIN_PASSWORD not set; skipping admin account")
		return
	}
	tokens, err := security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("jwt")
	}
	// no login happens here, so no rate limiter
	userUC := usecase.NewUserUseCase(pg.NewPostgresUserRepo(pool), tm, security.NewBcryptHasher(cfg.Auth.BcryptCost), tokens, nil, cfg.Auth.LoginRateLimit, logger)
	admin, isNew, err := userUC.EnsureAdmin(ctx, usecase.RegisterInput{
		Username:  *adminUser,
		FirstName: "Metro",
		LastName:  "Admin",
		Phone:     *adminPhone,
		Password:  password,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("admin")
	}
	logger.Info().Str("user_id", admin.ID).Bool("created", isNew).Msg("admin ready")
}

func findLine(ctx context.Context, uc usecase.StationUseCase, name string) (*model.Line, error) {
	lines, err := uc.ListLines(ctx)
	if err != nil {
		return nil, err
	}
	for _, l := range lines {
		if l.Name == name {
			return l, nil
		}
	}
	return nil, fmt.Errorf("line %q: %w", name, domain.ErrNotFound)
}
