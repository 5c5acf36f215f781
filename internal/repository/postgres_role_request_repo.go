package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// PostgresRoleRequestRepo はPostgreSQLを使用した役割申請リポジトリ。
type PostgresRoleRequestRepo struct {
	db *sql.DB
}

// NewPostgresRoleRequestRepo はPostgresRoleRequestRepoを生成する。
func NewPostgresRoleRequestRepo(db *sql.DB) *PostgresRoleRequestRepo {
	return &PostgresRoleRequestRepo{db: db}
}

const roleRequestColumns = `id, user_id, requested_role, portfolio_link, status, created_at`

func scanRoleRequest(row interface{ Scan(...any) error }) (*model.RoleRequest, error) {
	req := &model.RoleRequest{}
	err := row.Scan(
		&req.ID, &req.UserID, &req.RequestedRole, &req.PortfolioLink,
		&req.Status, &req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Create は申請を作成する。
func (r *PostgresRoleRequestRepo) Create(ctx context.Context, req *model.RoleRequest) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO role_requests
		 (id, user_id, requested_role, portfolio_link, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		req.ID, req.UserID, req.RequestedRole, req.PortfolioLink, req.Status, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert role request: %w", err)
	}
	return nil
}

// FindByID は指定IDの申請を取得する。見つからない場合はnilを返す。
func (r *PostgresRoleRequestRepo) FindByID(ctx context.Context, id string) (*model.RoleRequest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+roleRequestColumns+` FROM role_requests WHERE id = $1`, id)

	req, err := scanRoleRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find role request by ID: %w", err)
	}
	return req, nil
}

// FindPendingByUser はユーザーの審査待ち申請を検索する。見つからない場合はnilを返す。
func (r *PostgresRoleRequestRepo) FindPendingByUser(ctx context.Context, userID string) (*model.RoleRequest, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+roleRequestColumns+` FROM role_requests
		 WHERE user_id = $1 AND status = 'Pending'`,
		userID)

	req, err := scanRoleRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending role request: %w", err)
	}
	return req, nil
}

// ListPending は審査待ち申請一覧を新しい順に返す。
func (r *PostgresRoleRequestRepo) ListPending(ctx context.Context) ([]*model.RoleRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+roleRequestColumns+` FROM role_requests
		 WHERE status = 'Pending' ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending role requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.RoleRequest
	for rows.Next() {
		req, err := scanRoleRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// UpdateStatus は申請の審査状態を更新する。
func (r *PostgresRoleRequestRepo) UpdateStatus(ctx context.Context, id string, status model.RoleRequestStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE role_requests SET status = $1 WHERE id = $2`,
		status, id)
	if err != nil {
		return fmt.Errorf("failed to update role request status: %w", err)
	}
	return nil
}

// compile-time interface check
var _ RoleRequestRepository = (*PostgresRoleRequestRepo)(nil)
