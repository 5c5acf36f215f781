package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// PostgresAccessRepo はPostgreSQLを使用した管理者ホワイトリストリポジトリ。
type PostgresAccessRepo struct {
	db *sql.DB
}

// NewPostgresAccessRepo はPostgresAccessRepoを生成する。
func NewPostgresAccessRepo(db *sql.DB) *PostgresAccessRepo {
	return &PostgresAccessRepo{db: db}
}

// Find はメールアドレスでエントリを検索する。見つからない場合はnilを返す。
func (r *PostgresAccessRepo) Find(ctx context.Context, email string) (*model.Access, error) {
	a := &model.Access{}
	err := r.db.QueryRowContext(ctx,
		`SELECT email, granted_by, granted_at FROM access_whitelist WHERE email = $1`,
		email).Scan(&a.Email, &a.GrantedBy, &a.GrantedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find access entry: %w", err)
	}
	return a, nil
}

// Create はエントリを追加する。
func (r *PostgresAccessRepo) Create(ctx context.Context, a *model.Access) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_whitelist (email, granted_by, granted_at)
		 VALUES ($1, $2, $3)`,
		a.Email, a.GrantedBy, a.GrantedAt)
	if err != nil {
		return fmt.Errorf("failed to insert access entry: %w", err)
	}
	return nil
}

// List は全エントリを付与日時の新しい順に返す。
func (r *PostgresAccessRepo) List(ctx context.Context) ([]*model.Access, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT email, granted_by, granted_at FROM access_whitelist
		 ORDER BY granted_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list access entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.Access
	for rows.Next() {
		a := &model.Access{}
		if err := rows.Scan(&a.Email, &a.GrantedBy, &a.GrantedAt); err != nil {
			return nil, fmt.Errorf("failed to scan access entry: %w", err)
		}
		entries = append(entries, a)
	}
	return entries, rows.Err()
}

// Delete はエントリを削除する。
func (r *PostgresAccessRepo) Delete(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM access_whitelist WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("failed to delete access entry: %w", err)
	}
	return nil
}

// compile-time interface check
var _ AccessRepository = (*PostgresAccessRepo)(nil)
