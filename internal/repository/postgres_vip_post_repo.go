package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// PostgresVipPostRepo はPostgreSQLを使用したVIPインテル掲載リポジトリ。
type PostgresVipPostRepo struct {
	db *sql.DB
}

// NewPostgresVipPostRepo はPostgresVipPostRepoを生成する。
func NewPostgresVipPostRepo(db *sql.DB) *PostgresVipPostRepo {
	return &PostgresVipPostRepo{db: db}
}

const vipPostColumns = `id, user_id, intel_type, verified, global_service,
	service_description, portfolio_links, brand_name, searching_for,
	brand_social_link, intel_image, media_type, rating_snapshot, created_at`

func scanVipPost(row interface{ Scan(...any) error }) (*model.VipPost, error) {
	p := &model.VipPost{}
	err := row.Scan(
		&p.ID, &p.UserID, &p.IntelType, &p.Verified, &p.GlobalService,
		&p.ServiceDescription, pq.Array(&p.PortfolioLinks), &p.BrandName,
		&p.SearchingFor, &p.BrandSocialLink, &p.IntelImage, &p.MediaType,
		&p.RatingSnapshot, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create は掲載を作成する。
func (r *PostgresVipPostRepo) Create(ctx context.Context, p *model.VipPost) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vip_posts
		 (id, user_id, intel_type, verified, global_service, service_description,
		  portfolio_links, brand_name, searching_for, brand_social_link,
		  intel_image, media_type, rating_snapshot, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.UserID, p.IntelType, p.Verified, p.GlobalService, p.ServiceDescription,
		pq.Array(p.PortfolioLinks), p.BrandName, p.SearchingFor, p.BrandSocialLink,
		p.IntelImage, p.MediaType, p.RatingSnapshot, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert vip post: %w", err)
	}
	return nil
}

// ListByVerified は検証状態で絞った掲載一覧を返す。
// 検証済みフィードは評価スナップショット降順、審査キューは新しい順。
func (r *PostgresVipPostRepo) ListByVerified(ctx context.Context, verified bool) ([]*model.VipPost, error) {
	order := `created_at DESC`
	if verified {
		order = `rating_snapshot DESC, created_at DESC`
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+vipPostColumns+` FROM vip_posts
		 WHERE verified = $1 ORDER BY `+order,
		verified)
	if err != nil {
		return nil, fmt.Errorf("failed to list vip posts: %w", err)
	}
	defer rows.Close()

	var posts []*model.VipPost
	for rows.Next() {
		p, err := scanVipPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vip post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// SetVerified は掲載を検証済みにする。対象が存在したかを返す。
func (r *PostgresVipPostRepo) SetVerified(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE vip_posts SET verified = TRUE WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to verify vip post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Delete は指定IDの掲載を削除する。対象が存在したかを返す。
func (r *PostgresVipPostRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM vip_posts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete vip post: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// CountByVerified は検証状態別の掲載件数を返す。管理者ダッシュボード用。
func (r *PostgresVipPostRepo) CountByVerified(ctx context.Context) (map[bool]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT verified, COUNT(*) FROM vip_posts GROUP BY verified`)
	if err != nil {
		return nil, fmt.Errorf("failed to count vip posts: %w", err)
	}
	defer rows.Close()

	counts := map[bool]int{}
	for rows.Next() {
		var verified bool
		var count int
		if err := rows.Scan(&verified, &count); err != nil {
			return nil, fmt.Errorf("failed to scan vip post count: %w", err)
		}
		counts[verified] = count
	}
	return counts, rows.Err()
}

// compile-time interface check
var _ VipPostRepository = (*PostgresVipPostRepo)(nil)
