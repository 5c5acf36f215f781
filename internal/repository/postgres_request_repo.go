package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// PostgresRequestRepo はPostgreSQLを使用したミッション依頼リポジトリ。
type PostgresRequestRepo struct {
	db *sql.DB
}

// NewPostgresRequestRepo はPostgresRequestRepoを生成する。
func NewPostgresRequestRepo(db *sql.DB) *PostgresRequestRepo {
	return &PostgresRequestRepo{db: db}
}

const requestColumns = `id, sender_id, receiver_id, related_post_id,
	mission_goal, mission_details, sender_accept, receiver_accept, status, created_at`

func scanRequest(row interface{ Scan(...any) error }) (*model.Request, error) {
	req := &model.Request{}
	err := row.Scan(
		&req.ID, &req.SenderID, &req.ReceiverID, &req.RelatedPostID,
		&req.MissionGoal, &req.MissionDetails, &req.SenderAccept,
		&req.ReceiverAccept, &req.Status, &req.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// Create は依頼を作成する。
func (r *PostgresRequestRepo) Create(ctx context.Context, req *model.Request) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO requests
		 (id, sender_id, receiver_id, related_post_id, mission_goal,
		  mission_details, sender_accept, receiver_accept, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		req.ID, req.SenderID, req.ReceiverID, req.RelatedPostID, req.MissionGoal,
		req.MissionDetails, req.SenderAccept, req.ReceiverAccept, req.Status, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return nil
}

// FindByID は指定IDの依頼を取得する。見つからない場合はnilを返す。
func (r *PostgresRequestRepo) FindByID(ctx context.Context, id string) (*model.Request, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = $1`, id)

	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find request by ID: %w", err)
	}
	return req, nil
}

// FindPendingByTriple はsender/receiver/postの組でpendingの依頼を検索する。
// 見つからない場合はnilを返す。
func (r *PostgresRequestRepo) FindPendingByTriple(ctx context.Context, senderID, receiverID, postID string) (*model.Request, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests
		 WHERE sender_id = $1 AND receiver_id = $2 AND related_post_id = $3
		   AND status = 'pending'`,
		senderID, receiverID, postID)

	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending request: %w", err)
	}
	return req, nil
}

// ListIncoming は受信者のpending依頼一覧を新しい順に返す。
func (r *PostgresRequestRepo) ListIncoming(ctx context.Context, receiverID string) ([]*model.Request, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM requests
		 WHERE receiver_id = $1 AND status = 'pending'
		 ORDER BY created_at DESC`,
		receiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incoming requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// Delete は指定IDの依頼を削除する。
func (r *PostgresRequestRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete request: %w", err)
	}
	return nil
}

// compile-time interface check
var _ RequestRepository = (*PostgresRequestRepo)(nil)
