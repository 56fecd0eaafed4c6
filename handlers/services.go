// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/revote/casting"
	"github.com/danielhkuo/revote/cliparse"
	"github.com/danielhkuo/revote/middleware"
	"github.com/danielhkuo/revote/models"
	"github.com/danielhkuo/revote/store"
	"github.com/danielhkuo/revote/tally"
)

// Services are the domain components shared by the handlers and the
// background workers. There must be a single Resolver per process so that
// per-voter locking covers every writer.
type Services struct {
	Store    *store.Store
	Resolver *casting.Resolver
	Engine   *tally.Engine
}

// NewServices wires the domain components over an open database.
func NewServices(db *sql.DB, cfg cliparse.Config) (*Services, error) {
	images, err := casting.LoadImagePool(cfg.ImagePoolFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load image pool: %w", err)
	}

	s := store.New(db)
	return &Services{
		Store:    s,
		Resolver: casting.NewResolver(s, images),
		Engine:   tally.NewEngine(s),
	}, nil
}

// electionFromQuery loads the election named by ?election_id=, or the
// default election when the parameter is absent. It writes the error
// response itself and reports whether the caller may continue.
func electionFromQuery(w http.ResponseWriter, r *http.Request, s *store.Store) (models.Election, bool) {
	ctx := r.Context()

	var e models.Election
	var err error
	if id := r.URL.Query().Get("election_id"); id != "" {
		e, err = s.GetElection(ctx, s.DB(), id)
	} else {
		e, err = s.DefaultElection(ctx, time.Now().UTC())
	}

	if errors.Is(err, store.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Election not found")
		return models.Election{}, false
	}
	if err != nil {
		slog.Error("failed to query election", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return models.Election{}, false
	}
	return e, true
}
