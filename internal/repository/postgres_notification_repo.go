package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// PostgresNotificationRepo はPostgreSQLを使用した通知リポジトリ。
type PostgresNotificationRepo struct {
	db *sql.DB
}

// NewPostgresNotificationRepo はPostgresNotificationRepoを生成する。
func NewPostgresNotificationRepo(db *sql.DB) *PostgresNotificationRepo {
	return &PostgresNotificationRepo{db: db}
}

const notificationColumns = `id, recipient_id, sender_id, type, title, message,
	collective_id, request_id, external_link, is_read, cta_status, created_at`

func scanNotification(row interface{ Scan(...any) error }) (*model.Notification, error) {
	n := &model.Notification{}
	var collectiveID, requestID sql.NullString
	err := row.Scan(
		&n.ID, &n.RecipientID, &n.SenderID, &n.Type, &n.Title, &n.Message,
		&collectiveID, &requestID, &n.ExternalLink, &n.IsRead, &n.CTAStatus, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.CollectiveID = collectiveID.String
	n.RequestID = requestID.String
	return n, nil
}

// nullableID は空文字列をNULLとして扱う。UUID列は空文字列を受け付けない。
func nullableID(id string) sql.NullString {
	return sql.NullString{String: id, Valid: id != ""}
}

// Create は通知を作成する。
func (r *PostgresNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications
		 (id, recipient_id, sender_id, type, title, message,
		  collective_id, request_id, external_link, is_read, cta_status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		n.ID, n.RecipientID, n.SenderID, n.Type, n.Title, n.Message,
		nullableID(n.CollectiveID), nullableID(n.RequestID),
		n.ExternalLink, n.IsRead, n.CTAStatus, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// CreateBatch は複数の通知を同一トランザクションで一括作成する。
func (r *PostgresNotificationRepo) CreateBatch(ctx context.Context, ns []*model.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, n := range ns {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO notifications
			 (id, recipient_id, sender_id, type, title, message,
			  collective_id, request_id, external_link, is_read, cta_status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			n.ID, n.RecipientID, n.SenderID, n.Type, n.Title, n.Message,
			nullableID(n.CollectiveID), nullableID(n.RequestID),
			n.ExternalLink, n.IsRead, n.CTAStatus, n.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert notification batch: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListByRecipient は受信者の通知一覧を新しい順に返す。
func (r *PostgresNotificationRepo) ListByRecipient(ctx context.Context, recipientID string) ([]*model.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications
		 WHERE recipient_id = $1 ORDER BY created_at DESC`,
		recipientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []*model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// MarkRead は受信者本人の通知を既読にする。
// 他人の通知IDを指定しても変更されない。
func (r *PostgresNotificationRepo) MarkRead(ctx context.Context, id, recipientID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE
		 WHERE id = $1 AND recipient_id = $2`,
		id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// UpdateCTAByCollective はコレクティブ招待通知のCTA状態を更新する。
func (r *PostgresNotificationRepo) UpdateCTAByCollective(ctx context.Context, collectiveID, recipientID string, status model.CTAStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET cta_status = $1
		 WHERE collective_id = $2 AND recipient_id = $3 AND type = 'COLLECTIVE_INVITE'`,
		status, collectiveID, recipientID)
	if err != nil {
		return fmt.Errorf("failed to update notification CTA: %w", err)
	}
	return nil
}

// DeleteByRequestID はミッション依頼に紐づく通知を削除する。
func (r *PostgresNotificationRepo) DeleteByRequestID(ctx context.Context, requestID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE request_id = $1`, requestID)
	if err != nil {
		return fmt.Errorf("failed to delete notifications by request: %w", err)
	}
	return nil
}

// DeleteOlderThan は作成時刻がcutoffより古い通知を削除し、件数を返す。
func (r *PostgresNotificationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired notifications: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ NotificationRepository = (*PostgresNotificationRepo)(nil)
