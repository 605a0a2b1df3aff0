package usecase

import (
	"context"

	"cairo-metro-ticketing/internal/domain"
	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/domain/ports/repository"
	"cairo-metro-ticketing/internal/infra/logging"

	"github.com/rs/zerolog"
)

// Compile-time check
var _ StationUseCase = (*stationUC)(nil)

type StationUseCase interface {
	ListLines(ctx context.Context) ([]*model.Line, error)
	CreateLine(ctx context.Context, name, color, description string) (*model.Line, error)
	ListStations(ctx context.Context, lineID string) ([]*model.Station, error)
	GetStation(ctx context.Context, id string) (*model.Station, error)
	CreateStation(ctx context.Context, name string, zone int, lineID string, order int) (*model.Station, error)
	// Quote prices a trip without side effects.
	Quote(ctx context.Context, startID, endID string) (*FareQuote, error)
	// Route resolves both endpoints and checks they are active.
	Route(ctx context.Context, startID, endID string) (start, end *model.Station, err error)
}

type FareQuote struct {
	Start *model.Station
	End   *model.Station
	Line  *model.Line
	Fare  model.Fare
}

type stationUC struct {
	lines    repository.LineRepository
	stations repository.StationRepository
	log      *zerolog.Logger
}

func NewStationUseCase(lines repository.LineRepository, stations repository.StationRepository, logger *zerolog.Logger) *stationUC {
	l := logger.With().Str("component", "StationUC").Logger()
	return &stationUC{lines: lines, stations: stations, log: &l}
}

func (u *stationUC) ListLines(ctx context.Context) ([]*model.Line, error) {
	return u.lines.ListActive(ctx, repository.NoTX)
}

func (u *stationUC) CreateLine(ctx context.Context, name, color, description string) (*model.Line, error) {
	defer logging.TraceDuration(u.log, "StationUC.CreateLine")()
	line, err := model.NewLine("", name, color, description)
	if err != nil {
		return nil, err
	}
	if err := u.lines.Save(ctx, repository.NoTX, line); err != nil {
		return nil, err
	}
	u.log.Info().Str("line_id", line.ID).Str("name", line.Name).Msg("line created")
	return line, nil
}

func (u *stationUC) ListStations(ctx context.Context, lineID string) ([]*model.Station, error) {
	return u.stations.ListByLine(ctx, repository.NoTX, lineID)
}

func (u *stationUC) GetStation(ctx context.Context, id string) (*model.Station, error) {
	return u.stations.FindByID(ctx, repository.NoTX, id)
}

func (u *stationUC) CreateStation(ctx context.Context, name string, zone int, lineID string, order int) (*model.Station, error) {
	defer logging.TraceDuration(u.log, "StationUC.CreateStation")()
	if _, err := u.lines.FindByID(ctx, repository.NoTX, lineID); err != nil {
		return nil, err
	}
	st, err := model.NewStation("", name, zone, lineID, order)
	if err != nil {
		return nil, err
	}
	if err := u.stations.Save(ctx, repository.NoTX, st); err != nil {
		return nil, err
	}
	u.log.Info().Str("station_id", st.ID).Str("line_id", lineID).Int("order", order).Msg("station created")
	return st, nil
}

func (u *stationUC) Route(ctx context.Context, startID, endID string) (*model.Station, *model.Station, error) {
	start, err := u.activeStation(ctx, startID)
	if err != nil {
		return nil, nil, err
	}
	end, err := u.activeStation(ctx, endID)
	if err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

func (u *stationUC) Quote(ctx context.Context, startID, endID string) (*FareQuote, error) {
	start, end, err := u.Route(ctx, startID, endID)
	if err != nil {
		return nil, err
	}
	fare, err := model.CalculateFare(start, end)
	if err != nil {
		return nil, err
	}
	line, err := u.lines.FindByID(ctx, repository.NoTX, start.LineID)
	if err != nil {
		return nil, err
	}
	return &FareQuote{Start: start, End: end, Line: line, Fare: fare}, nil
}

func (u *stationUC) activeStation(ctx context.Context, id string) (*model.Station, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	st, err := u.stations.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if !st.IsActive {
		return nil, domain.ErrNotFound
	}
	return st, nil
}
