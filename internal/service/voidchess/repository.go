package voidchess

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/park285/void-chess/internal/domain"
)

var ErrDuplicateGame = errors.New("chess game already exists")

type Repository interface {
	EnsureSchema(ctx context.Context) error
	InsertGame(ctx context.Context, game *domain.ChessGame) (int64, error)
	GetRecentGames(ctx context.Context, limit int) ([]*domain.ChessGame, error)
	GetGamesBySession(ctx context.Context, sessionUUID string, limit int) ([]*domain.ChessGame, error)
	GetGame(ctx context.Context, gameUUID string) (*domain.ChessGame, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const schema = `
	CREATE TABLE IF NOT EXISTS chess_games (
		id                   BIGSERIAL PRIMARY KEY,
		game_uuid            UUID NOT NULL UNIQUE,
		session_uuid         TEXT NOT NULL,
		result               TEXT NOT NULL,
		result_method        TEXT NOT NULL,
		winner               TEXT NOT NULL DEFAULT '',
		difficulty           TEXT NOT NULL DEFAULT '',
		castling_mode        TEXT NOT NULL DEFAULT 'standard',
		moves_uci            JSONB NOT NULL,
		moves_notation       JSONB NOT NULL,
		moves_san            JSONB NOT NULL,
		pgn                  TEXT NOT NULL DEFAULT '',
		started_at           TIMESTAMPTZ NOT NULL,
		ended_at             TIMESTAMPTZ NOT NULL,
		duration_ms          BIGINT,
		white_time_ms        BIGINT,
		black_time_ms        BIGINT,
		white_captured       INTEGER NOT NULL DEFAULT 0,
		black_captured       INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS chess_games_ended_at_idx ON chess_games (ended_at DESC);
	CREATE INDEX IF NOT EXISTS chess_games_session_idx ON chess_games (session_uuid, ended_at DESC)`

func (r *repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure chess schema: %w", err)
	}
	return nil
}

func (r *repository) InsertGame(ctx context.Context, game *domain.ChessGame) (int64, error) {
	if game == nil {
		return 0, fmt.Errorf("nil chess game payload")
	}

	movesUCI, err := json.Marshal(nonNil(game.MovesUCI))
	if err != nil {
		return 0, fmt.Errorf("marshal moves_uci: %w", err)
	}
	movesNotation, err := json.Marshal(nonNil(game.MovesNotation))
	if err != nil {
		return 0, fmt.Errorf("marshal moves_notation: %w", err)
	}
	movesSAN, err := json.Marshal(nonNil(game.MovesSAN))
	if err != nil {
		return 0, fmt.Errorf("marshal moves_san: %w", err)
	}

	const query = `
		INSERT INTO chess_games (
			game_uuid,
			session_uuid,
			result,
			result_method,
			winner,
			difficulty,
			castling_mode,
			moves_uci,
			moves_notation,
			moves_san,
			pgn,
			started_at,
			ended_at,
			duration_ms,
			white_time_ms,
			black_time_ms,
			white_captured,
			black_captured
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb, $10::jsonb, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (game_uuid) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = r.db.QueryRowContext(
		ctx,
		query,
		game.GameUUID,
		game.SessionUUID,
		game.Result,
		game.ResultMethod,
		game.Winner,
		game.Difficulty,
		game.CastlingMode,
		movesUCI,
		movesNotation,
		movesSAN,
		game.PGN,
		game.StartedAt,
		game.EndedAt,
		game.Duration.Milliseconds(),
		game.WhiteTimeRemaining.Milliseconds(),
		game.BlackTimeRemaining.Milliseconds(),
		game.WhiteCaptured,
		game.BlackCaptured,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return 0, ErrDuplicateGame
	}
	if err != nil {
		return 0, fmt.Errorf("insert chess game: %w", err)
	}
	return id.Int64, nil
}

const selectColumns = `
		SELECT
			id,
			game_uuid,
			session_uuid,
			result,
			result_method,
			winner,
			difficulty,
			castling_mode,
			moves_uci,
			moves_notation,
			moves_san,
			pgn,
			started_at,
			ended_at,
			duration_ms,
			white_time_ms,
			black_time_ms,
			white_captured,
			black_captured
		FROM chess_games`

func (r *repository) GetRecentGames(ctx context.Context, limit int) ([]*domain.ChessGame, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, selectColumns+`
		ORDER BY ended_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("select chess games: %w", err)
	}
	defer rows.Close()
	return scanGames(rows, limit)
}

func (r *repository) GetGamesBySession(ctx context.Context, sessionUUID string, limit int) ([]*domain.ChessGame, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, selectColumns+`
		WHERE session_uuid = $1
		ORDER BY ended_at DESC
		LIMIT $2`, sessionUUID, limit)
	if err != nil {
		return nil, fmt.Errorf("select session chess games: %w", err)
	}
	defer rows.Close()
	return scanGames(rows, limit)
}

func (r *repository) GetGame(ctx context.Context, gameUUID string) (*domain.ChessGame, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+`
		WHERE game_uuid = $1`, gameUUID)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, err
	}
	return game, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGames(rows *sql.Rows, capacity int) ([]*domain.ChessGame, error) {
	games := make([]*domain.ChessGame, 0, capacity)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chess games: %w", err)
	}
	return games, nil
}

func scanGame(row rowScanner) (*domain.ChessGame, error) {
	var (
		game              domain.ChessGame
		movesUCIJSON      []byte
		movesNotationJSON []byte
		movesSANJSON      []byte
		durationMS        sql.NullInt64
		whiteMS           sql.NullInt64
		blackMS           sql.NullInt64
	)
	if err := row.Scan(
		&game.ID,
		&game.GameUUID,
		&game.SessionUUID,
		&game.Result,
		&game.ResultMethod,
		&game.Winner,
		&game.Difficulty,
		&game.CastlingMode,
		&movesUCIJSON,
		&movesNotationJSON,
		&movesSANJSON,
		&game.PGN,
		&game.StartedAt,
		&game.EndedAt,
		&durationMS,
		&whiteMS,
		&blackMS,
		&game.WhiteCaptured,
		&game.BlackCaptured,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan chess game: %w", err)
	}
	game.Duration = millis(durationMS)
	game.WhiteTimeRemaining = millis(whiteMS)
	game.BlackTimeRemaining = millis(blackMS)
	if err := json.Unmarshal(movesUCIJSON, &game.MovesUCI); err != nil {
		return nil, fmt.Errorf("unmarshal moves_uci: %w", err)
	}
	if err := json.Unmarshal(movesNotationJSON, &game.MovesNotation); err != nil {
		return nil, fmt.Errorf("unmarshal moves_notation: %w", err)
	}
	if err := json.Unmarshal(movesSANJSON, &game.MovesSAN); err != nil {
		return nil, fmt.Errorf("unmarshal moves_san: %w", err)
	}
	return &game, nil
}

func millis(v sql.NullInt64) time.Duration {
	if !v.Valid {
		return 0
	}
	return time.Duration(v.Int64) * time.Millisecond
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
