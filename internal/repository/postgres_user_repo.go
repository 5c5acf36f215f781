package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, name, email, phone, role, speciality, custom_speciality,
	portfolio_url, identity_image, biometric_image, is_verified, status,
	is_paused, is_premium, average_rating, access_until, created_at, updated_at`

// scanUser は1行をmodel.Userに読み込む。
func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Phone, &u.Role, &u.Speciality, &u.CustomSpeciality,
		&u.PortfolioURL, &u.IdentityImage, &u.BiometricImage, &u.IsVerified, &u.Status,
		&u.IsPaused, &u.IsPremium, &u.AverageRating, &u.AccessUntil, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = lower($1)`, email)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	return user, nil
}

// ListByStatus は指定審査状態のユーザー一覧を新しい順に返す。
func (r *PostgresUserRepo) ListByStatus(ctx context.Context, status model.UserStatus) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE status = $1 ORDER BY created_at DESC`,
		status)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by status: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateStatus はユーザーの審査状態を更新する。
func (r *PostgresUserRepo) UpdateStatus(ctx context.Context, id string, status model.UserStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET status = $1, updated_at = now() WHERE id = $2`,
		status, id)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// UpdateRoleByID は指定IDのユーザーの役割を更新する。
func (r *PostgresUserRepo) UpdateRoleByID(ctx context.Context, id string, role model.Role) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = $1, updated_at = now() WHERE id = $2`,
		role, id)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// UpdateRoleByEmail はメールアドレス一致のユーザーの役割を更新する。
// 該当ユーザーが存在しなくてもエラーにならない。
func (r *PostgresUserRepo) UpdateRoleByEmail(ctx context.Context, email string, role model.Role) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = $1, updated_at = now() WHERE email = lower($2)`,
		role, email)
	if err != nil {
		return fmt.Errorf("failed to update user role by email: %w", err)
	}
	return nil
}

// ExtendAccess はアクセス期限を更新し、一時停止を解除してActiveへ復帰させる。
func (r *PostgresUserRepo) ExtendAccess(ctx context.Context, id string, until time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET access_until = $1, is_paused = FALSE, status = 'Active', updated_at = now()
		 WHERE id = $2`,
		until, id)
	if err != nil {
		return fmt.Errorf("failed to extend user access: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", id)
	}
	return nil
}

// pauseExpiredQuery は日次監査の一括停止条件。Admin役割は恒久的に免除される。
const pauseExpiredQuery = `UPDATE users
	 SET is_paused = TRUE, updated_at = now()
	 WHERE role <> 'Admin' AND access_until < $1 AND is_paused = FALSE`

// PauseExpired は期限切れかつ未停止の非Adminユーザーを一括で一時停止する。
// 停止した件数を返す。
func (r *PostgresUserRepo) PauseExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, pauseExpiredQuery, now)
	if err != nil {
		return 0, fmt.Errorf("failed to pause expired users: %w", err)
	}
	paused, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return paused, nil
}

// SearchOperatives は稼働可能なフリーランサーを名前/メールの部分一致で検索する。
func (r *PostgresUserRepo) SearchOperatives(ctx context.Context, query string, now time.Time, limit int) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE role = 'Freelancer'
		   AND status = 'Active'
		   AND is_verified = TRUE
		   AND is_paused = FALSE
		   AND access_until > $1
		   AND (name ILIKE '%' || $2 || '%' OR email ILIKE '%' || $2 || '%')
		 ORDER BY name
		 LIMIT $3`,
		now, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search operatives: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Stats は管理者ダッシュボード用の集計を返す。
func (r *PostgresUserRepo) Stats(ctx context.Context, growthSince time.Time) (*UserStats, error) {
	stats := &UserStats{
		ByStatus:   make(map[model.UserStatus]int),
		ByRole:     make(map[model.Role]int),
		ByVerified: make(map[bool]int),
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM users GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count users by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s model.UserStatus
		var c int
		if err := rows.Scan(&s, &c); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.ByStatus[s] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("failed to count users by role: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var role model.Role
		var c int
		if err := rows.Scan(&role, &c); err != nil {
			return nil, fmt.Errorf("failed to scan role count: %w", err)
		}
		stats.ByRole[role] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT is_verified, COUNT(*) FROM users GROUP BY is_verified`)
	if err != nil {
		return nil, fmt.Errorf("failed to count users by verification: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var v bool
		var c int
		if err := rows.Scan(&v, &c); err != nil {
			return nil, fmt.Errorf("failed to scan verification count: %w", err)
		}
		stats.ByVerified[v] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.db.QueryContext(ctx,
		`SELECT EXTRACT(YEAR FROM created_at)::int,
		        EXTRACT(MONTH FROM created_at)::int,
		        COUNT(*)
		 FROM users
		 WHERE created_at >= $1
		 GROUP BY 1, 2
		 ORDER BY 1, 2`,
		growthSince)
	if err != nil {
		return nil, fmt.Errorf("failed to count signup growth: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var mc MonthlyCount
		if err := rows.Scan(&mc.Year, &mc.Month, &mc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan growth count: %w", err)
		}
		stats.Growth = append(stats.Growth, mc)
	}
	return stats, rows.Err()
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
