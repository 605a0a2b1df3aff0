package model

import (
	"strings"
	"time"

	"cairo-metro-ticketing/internal/domain"

	"github.com/google/uuid"
)

// Line is a metro line owning an ordered set of stations.
type Line struct {
	ID          string
	Name        string
	Color       string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}

func NewLine(id, name, color, description string) (*Line, error) {
	if id == "" {
		id = uuid.NewString()
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Line{
		ID:          id,
		Name:        name,
		Color:       color,
		Description: description,
		IsActive:    true,
		CreatedAt:   time.Now(),
	}, nil
}

// Station is a stop on exactly one line. Order is unique per line.
type Station struct {
	ID        string
	Name      string
	Zone      int
	LineID    string
	Order     int
	IsActive  bool
	CreatedAt time.Time
}

func NewStation(id, name string, zone int, lineID string, order int) (*Station, error) {
	if id == "" {
		id = uuid.NewString()
	}
	name = strings.TrimSpace(name)
	if name == "" || lineID == "" || zone <= 0 || order < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return &Station{
		ID:        id,
		Name:      name,
		Zone:      zone,
		LineID:    lineID,
		Order:     order,
		IsActive:  true,
		CreatedAt: time.Now(),
	}, nil
}
