package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func selectBuilt(ctx context.Context, db *sqlx.DB, dest interface{}, b sq.SelectBuilder, what string) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build %s query: %w", what, err)
	}
	if err := db.SelectContext(ctx, dest, query, args...); err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	return nil
}

// getBuilt returns sql.ErrNoRows unwrapped so callers can map it to NOT_FOUND.
func getBuilt(ctx context.Context, db *sqlx.DB, dest interface{}, b sq.SelectBuilder, what string) error {
	query, args, err := b.ToSql()
	if err != nil {
		return fmt.Errorf("build %s query: %w", what, err)
	}
	return db.GetContext(ctx, dest, query, args...)
}

func whereIf(b sq.SelectBuilder, column, value string) sq.SelectBuilder {
	if value == "" {
		return b
	}
	return b.Where(sq.Eq{column: value})
}
