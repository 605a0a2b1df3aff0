package repository

import (
	"context"

	"cairo-metro-ticketing/internal/domain/model"
)

// -----------------------------
// Lines & stations
// -----------------------------

type LineRepository interface {
	Save(ctx context.Context, tx Tx, l *model.Line) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Line, error)
	FindByName(ctx context.Context, tx Tx, name string) (*model.Line, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Line, error)
}

type StationRepository interface {
	Save(ctx context.Context, tx Tx, s *model.Station) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Station, error)
	// ListByLine returns stations ordered by their position; empty lineID lists all lines.
	ListByLine(ctx context.Context, tx Tx, lineID string) ([]*model.Station, error)
}
