package persist

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/driftgate/server/internal/geom"
)

// PlayerRow is the durable slice of a player: identity plus the last
// known location, enough to put them back where they logged out.
type PlayerRow struct {
	Account     string
	Name        string
	RegionProto uint64
	Position    geom.Vector3
	Heading     float32
	LastSaved   *time.Time
}

type PlayerRepo struct {
	db *DB
}

func NewPlayerRepo(db *DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

// Load returns the player row for an account, or nil without error when
// the account has no player yet.
func (r *PlayerRepo) Load(ctx context.Context, account string) (*PlayerRow, error) {
	row := &PlayerRow{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT account, name, region_proto, pos_x, pos_y, pos_z, heading, last_saved
		 FROM players WHERE account = $1`, account,
	).Scan(
		&row.Account, &row.Name, &row.RegionProto,
		&row.Position.X, &row.Position.Y, &row.Position.Z,
		&row.Heading, &row.LastSaved,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (r *PlayerRepo) Create(ctx context.Context, row *PlayerRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO players (account, name, region_proto, pos_x, pos_y, pos_z, heading, last_saved)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		row.Account, row.Name, row.RegionProto,
		row.Position.X, row.Position.Y, row.Position.Z, row.Heading,
	)
	return err
}

// Save writes back the player's location. Runs in batches from the
// persistence system and at disconnect.
func (r *PlayerRepo) Save(ctx context.Context, row *PlayerRow) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE players
		 SET region_proto = $2, pos_x = $3, pos_y = $4, pos_z = $5,
		     heading = $6, last_saved = NOW()
		 WHERE account = $1`,
		row.Account, row.RegionProto,
		row.Position.X, row.Position.Y, row.Position.Z, row.Heading,
	)
	return err
}
