package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/monitor-report/internal/domain"
)

// ServerRepository persists monitored Discord servers.
type ServerRepository interface {
	Create(ctx context.Context, server *domain.DiscordServer) error
	Update(ctx context.Context, server *domain.DiscordServer) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.DiscordServer, error)
	List(ctx context.Context, activeOnly bool) ([]domain.DiscordServer, error)
	// MissingIDs returns the ids from ids that have no server row.
	MissingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

type serverRepository struct {
	pool *pgxpool.Pool
}

// NewServerRepository builds repository.
func NewServerRepository(pool *pgxpool.Pool) ServerRepository {
	return &serverRepository{pool: pool}
}

const serverColumns = `id, name, description, is_active, created_at, updated_at`

func (r *serverRepository) Create(ctx context.Context, server *domain.DiscordServer) error {
	const query = `
        INSERT INTO discord_servers (name, description, is_active)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query, server.Name, server.Description, server.IsActive).
		Scan(&server.ID, &server.CreatedAt, &server.UpdatedAt)
}

func (r *serverRepository) Update(ctx context.Context, server *domain.DiscordServer) error {
	const query = `
        UPDATE discord_servers SET name=$1, description=$2, is_active=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query, server.Name, server.Description, server.IsActive, server.ID).
		Scan(&server.UpdatedAt)
}

func (r *serverRepository) Delete(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM discord_servers WHERE id=$1`, id)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *serverRepository) GetByID(ctx context.Context, id int64) (*domain.DiscordServer, error) {
	return scanServer(r.pool.QueryRow(ctx, `SELECT `+serverColumns+` FROM discord_servers WHERE id=$1`, id))
}

func (r *serverRepository) List(ctx context.Context, activeOnly bool) ([]domain.DiscordServer, error) {
	query := `SELECT ` + serverColumns + ` FROM discord_servers`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY name, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var servers []domain.DiscordServer
	for rows.Next() {
		server, err := scanServer(rows)
		if err != nil {
			return nil, err
		}
		servers = append(servers, *server)
	}
	return servers, rows.Err()
}

func (r *serverRepository) MissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	const query = `
        SELECT want.id FROM unnest($1::bigint[]) AS want(id)
        WHERE NOT EXISTS (SELECT 1 FROM discord_servers s WHERE s.id = want.id)
        ORDER BY want.id`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[int64])
}

func scanServer(row pgx.Row) (*domain.DiscordServer, error) {
	var server domain.DiscordServer
	if err := row.Scan(
		&server.ID,
		&server.Name,
		&server.Description,
		&server.IsActive,
		&server.CreatedAt,
		&server.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &server, nil
}
