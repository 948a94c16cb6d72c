// Package db is the lobby-discovery service's PostgreSQL store: registered
// users and advertised games.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/cambiogame/cambio/internal/db/migrations"
)

// User is a registered account. Password holds the bcrypt hash.
type User struct {
	Name     string
	Password string
}

// Game is an advertised game: a join id and where to connect.
type Game struct {
	ID         string
	Name       string
	ServerAddr string
	Public     bool
}

// Store wraps a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and returns a Store.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// RunMigrations brings the schema up to date from the embedded goose
// migrations. Uses its own database/sql connection; goose does not speak
// pgxpool.
func RunMigrations(ctx context.Context, dsn string) error {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("opening migration connection: %w", err)
	}
	defer sqlDB.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("selecting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, sqlDB, "."); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// CreateUser inserts a new user. Returns an error when the name is taken.
func (s *Store) CreateUser(ctx context.Context, u User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (name, password) VALUES ($1, $2)`,
		u.Name, u.Password,
	)
	if err != nil {
		return fmt.Errorf("creating user %q: %w", u.Name, err)
	}
	return nil
}

// GetUser retrieves a user by name.
// Returns nil, nil when the user does not exist.
func (s *Store) GetUser(ctx context.Context, name string) (*User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`SELECT name, password FROM users WHERE name = $1`, name,
	).Scan(&u.Name, &u.Password)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying user %q: %w", name, err)
	}
	return &u, nil
}

// CreateGame advertises a game under its join id.
func (s *Store) CreateGame(ctx context.Context, g Game) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO games (id, name, server_addr, public) VALUES ($1, $2, $3, $4)`,
		g.ID, g.Name, g.ServerAddr, g.Public,
	)
	if err != nil {
		return fmt.Errorf("creating game %q: %w", g.ID, err)
	}
	return nil
}

// GetGame retrieves a game by its join id.
// Returns nil, nil when the id is unknown.
func (s *Store) GetGame(ctx context.Context, id string) (*Game, error) {
	var g Game
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, server_addr, public FROM games WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.ServerAddr, &g.Public)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying game %q: %w", id, err)
	}
	return &g, nil
}

// ListPublicGames returns every publicly advertised game.
func (s *Store) ListPublicGames(ctx context.Context) ([]Game, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, server_addr, public FROM games WHERE public ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing public games: %w", err)
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		var g Game
		if err := rows.Scan(&g.ID, &g.Name, &g.ServerAddr, &g.Public); err != nil {
			return nil, fmt.Errorf("scanning game row: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating game rows: %w", err)
	}
	return games, nil
}
