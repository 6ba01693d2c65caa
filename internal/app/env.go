package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/blackwell-systems/impactlog/internal/catalog"
	"github.com/blackwell-systems/impactlog/internal/store"
	"github.com/blackwell-systems/impactlog/internal/tracker"
	"github.com/rs/zerolog/log"
)

// loadCatalog returns the configured catalog, or the embedded default.
func loadCatalog() (*catalog.Catalog, error) {
	cat, err := catalog.Load(appConfig.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return cat, nil
}

// openTracker opens the database and builds a Tracker. The returned func
// closes the database.
func openTracker() (*tracker.Tracker, func(), error) {
	cat, err := loadCatalog()
	if err != nil {
		return nil, nil, err
	}

	db, err := store.Open(appConfig.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	log.Debug().Str("path", appConfig.DBPath).Msg("database opened")

	closeDB := func() {
		if err := db.Close(); err != nil {
			log.Warn().Err(err).Msg("closing database")
		}
	}
	return tracker.New(cat, db, appConfig.Review.Template()), closeDB, nil
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// shortID is the display form of a UUID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
