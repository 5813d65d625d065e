package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/internal/syncrun/dto"
	"github.com/jmoiron/sqlx"
)

const defaultListLimit = 50

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, run *model.SyncRun) error {
	query := `
        INSERT INTO sync_runs (id, name, type, status, started_at, ended_at, summary, created_at)
        VALUES (:id, :name, :type, :status, :started_at, :ended_at, :summary, :created_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, run)
	return err
}

func (r *PGRepository) List(ctx context.Context, f *dto.RunFilters) ([]model.SyncRun, error) {
	runs := []model.SyncRun{}

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Type != "" {
		conditions = append(conditions, "type = :type")
		args["type"] = f.Type
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := fmt.Sprintf("SELECT * FROM sync_runs%s ORDER BY started_at DESC LIMIT %d", whereClause, limit)

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &runs, args); err != nil {
		return nil, err
	}
	return runs, nil
}
