package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// PostgresPaymentRepo はPostgreSQLを使用したD17レシートリポジトリ。
type PostgresPaymentRepo struct {
	db *sql.DB
}

// NewPostgresPaymentRepo はPostgresPaymentRepoを生成する。
func NewPostgresPaymentRepo(db *sql.DB) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{db: db}
}

const paymentColumns = `id, user_id, screenshot, plan, amount, status, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*model.Payment, error) {
	p := &model.Payment{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.Screenshot, &p.Plan, &p.Amount,
		&p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create はレシート提出記録を作成する。
func (r *PostgresPaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO payments
		 (id, user_id, screenshot, plan, amount, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.UserID, p.Screenshot, p.Plan, p.Amount, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert payment: %w", err)
	}
	return nil
}

// FindByID は指定IDのレシートを取得する。見つからない場合はnilを返す。
func (r *PostgresPaymentRepo) FindByID(ctx context.Context, id string) (*model.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)

	p, err := scanPayment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find payment by ID: %w", err)
	}
	return p, nil
}

// ListPending は検証待ちレシート一覧を新しい順に返す。
func (r *PostgresPaymentRepo) ListPending(ctx context.Context) ([]*model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments
		 WHERE status = 'Pending' ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending payments: %w", err)
	}
	defer rows.Close()

	var payments []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// UpdateStatusIf はレシート状態を条件付きで更新する。
// 既に別の管理者が処理したレシートは変更されない。
func (r *PostgresPaymentRepo) UpdateStatusIf(ctx context.Context, id string, from, to model.PaymentStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE payments SET status = $1, updated_at = now()
		 WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update payment status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ PaymentRepository = (*PostgresPaymentRepo)(nil)
