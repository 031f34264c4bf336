package stores

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/techtrack/internal/data/db"
)

// OpenDB opens the SQLite database in dataDir. A corrupted database file is
// moved aside and replaced with an empty one.
func OpenDB(dataDir string, opts db.OpenOptions) (*db.DB, error) {
	database, err := db.Open(dataDir, opts)
	if err == nil {
		return database, nil
	}
	if !IsCorruptionError(err) {
		return nil, err
	}

	backup, recErr := RecoverFromCorruption(dataDir)
	if recErr != nil {
		return nil, fmt.Errorf("%w (recovery failed: %v)", err, recErr)
	}
	log.Warn().Err(err).Str("backup", backup).Msg("database corrupted, starting fresh")

	return db.Open(dataDir, opts)
}
