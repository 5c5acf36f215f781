package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/BilelTheDeveloper/chrikitn-backend/internal/model"
)

// PostgresCollectiveRepo はPostgreSQLを使用したコレクティブリポジトリ。
type PostgresCollectiveRepo struct {
	db *sql.DB
}

// NewPostgresCollectiveRepo はPostgresCollectiveRepoを生成する。
func NewPostgresCollectiveRepo(db *sql.DB) *PostgresCollectiveRepo {
	return &PostgresCollectiveRepo{db: db}
}

// Create はコレクティブとメンバー・サービス行を同一トランザクションで作成する。
func (r *PostgresCollectiveRepo) Create(ctx context.Context, c *model.Collective) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO collectives
		 (id, name, logo, slogan, description, hero_background, owner_id,
		  portfolio_links, rating, status, is_deployed, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.Name, c.Logo, c.Slogan, c.Description, c.HeroBackground, c.OwnerID,
		pq.Array(c.PortfolioLinks), c.Rating, c.Status, c.IsDeployed, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert collective: %w", err)
	}

	for _, m := range c.Members {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO collective_members (collective_id, user_id, status, joined_at)
			 VALUES ($1, $2, $3, $4)`,
			c.ID, m.UserID, m.Status, m.JoinedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert collective member: %w", err)
		}
	}

	for _, s := range c.Services {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO collective_services (id, collective_id, title, description)
			 VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), c.ID, s.Title, s.Description,
		)
		if err != nil {
			return fmt.Errorf("failed to insert collective service: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

const collectiveColumns = `id, name, logo, slogan, description, hero_background,
	owner_id, portfolio_links, rating, status, is_deployed, deployed_at, created_at`

// scanCollective は1行をmodel.Collectiveに読み込む（メンバー・サービスは含まない）。
func scanCollective(row interface{ Scan(...any) error }) (*model.Collective, error) {
	c := &model.Collective{}
	err := row.Scan(
		&c.ID, &c.Name, &c.Logo, &c.Slogan, &c.Description, &c.HeroBackground,
		&c.OwnerID, pq.Array(&c.PortfolioLinks), &c.Rating, &c.Status,
		&c.IsDeployed, &c.DeployedAt, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// FindByID は指定IDのコレクティブをメンバー・サービス込みで取得する。
// 見つからない場合はnilを返す。
func (r *PostgresCollectiveRepo) FindByID(ctx context.Context, id string) (*model.Collective, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+collectiveColumns+` FROM collectives WHERE id = $1`, id)

	c, err := scanCollective(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find collective by ID: %w", err)
	}

	if err := r.loadMembers(ctx, c); err != nil {
		return nil, err
	}
	if err := r.loadServices(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// FindByName は名前完全一致でコレクティブを検索する。見つからない場合はnilを返す。
func (r *PostgresCollectiveRepo) FindByName(ctx context.Context, name string) (*model.Collective, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+collectiveColumns+` FROM collectives WHERE name = $1`, name)

	c, err := scanCollective(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find collective by name: %w", err)
	}
	return c, nil
}

// ListByStatus は指定状態のコレクティブ一覧を評価降順で返す。
// 一覧用途のためメンバー・サービスはロードしない。
func (r *PostgresCollectiveRepo) ListByStatus(ctx context.Context, status model.CollectiveStatus) ([]*model.Collective, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+collectiveColumns+` FROM collectives
		 WHERE status = $1 ORDER BY rating DESC, created_at DESC`,
		status)
	if err != nil {
		return nil, fmt.Errorf("failed to list collectives: %w", err)
	}
	defer rows.Close()

	var collectives []*model.Collective
	for rows.Next() {
		c, err := scanCollective(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan collective: %w", err)
		}
		collectives = append(collectives, c)
	}
	return collectives, rows.Err()
}

// UpdateMemberStatus はメンバーの招待応答状態を条件付きで更新する。
func (r *PostgresCollectiveRepo) UpdateMemberStatus(ctx context.Context, collectiveID, userID string, from, to model.MemberStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE collective_members SET status = $1
		 WHERE collective_id = $2 AND user_id = $3 AND status = $4`,
		to, collectiveID, userID, from)
	if err != nil {
		return false, fmt.Errorf("failed to update member status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// CountMembersNot はステータスがstatus以外のメンバー数を返す。
func (r *PostgresCollectiveRepo) CountMembersNot(ctx context.Context, collectiveID string, status model.MemberStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM collective_members
		 WHERE collective_id = $1 AND status <> $2`,
		collectiveID, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

// UpdateStatusIf はコレクティブ状態を条件付きで更新する。
func (r *PostgresCollectiveRepo) UpdateStatusIf(ctx context.Context, id string, from, to model.CollectiveStatus) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE collectives SET status = $1 WHERE id = $2 AND status = $3`,
		to, id, from)
	if err != nil {
		return false, fmt.Errorf("failed to update collective status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Deploy はAwaiting Adminのコレクティブのみを稼働状態へ遷移させる。
// 条件付きUPDATEにより、他状態からの呼び出しは状態を一切変更しない。
func (r *PostgresCollectiveRepo) Deploy(ctx context.Context, id string, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE collectives
		 SET status = 'Active', is_deployed = TRUE, deployed_at = $1
		 WHERE id = $2 AND status = 'Awaiting Admin'`,
		at, id)
	if err != nil {
		return false, fmt.Errorf("failed to deploy collective: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// ListActiveWithIneligibleMembers は停止・失効メンバーを1人以上含む
// ActiveなコレクティブのID一覧を返す。
func (r *PostgresCollectiveRepo) ListActiveWithIneligibleMembers(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT c.id
		 FROM collectives c
		 JOIN collective_members m ON m.collective_id = c.id
		 JOIN users u ON u.id = m.user_id
		 WHERE c.status = 'Active'
		   AND (u.is_paused = TRUE OR u.access_until < $1)`,
		now)
	if err != nil {
		return nil, fmt.Errorf("failed to list suspendable collectives: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan collective id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SuspendActive は指定IDのうちActiveなものをSuspendedへ遷移させ、件数を返す。
func (r *PostgresCollectiveRepo) SuspendActive(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE collectives SET status = 'Suspended'
		 WHERE id = ANY($1) AND status = 'Active'`,
		pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to suspend collectives: %w", err)
	}
	suspended, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return suspended, nil
}

// Delete は指定IDのコレクティブを削除する。
// メンバー・サービス行はCASCADE削除される。
func (r *PostgresCollectiveRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM collectives WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete collective: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("collective not found: %s", id)
	}
	return nil
}

// loadMembers はコレクティブのメンバー一覧をロードする。
func (r *PostgresCollectiveRepo) loadMembers(ctx context.Context, c *model.Collective) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, status, joined_at FROM collective_members
		 WHERE collective_id = $1 ORDER BY joined_at`,
		c.ID)
	if err != nil {
		return fmt.Errorf("failed to load collective members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m model.CollectiveMember
		if err := rows.Scan(&m.UserID, &m.Status, &m.JoinedAt); err != nil {
			return fmt.Errorf("failed to scan collective member: %w", err)
		}
		c.Members = append(c.Members, m)
	}
	return rows.Err()
}

// loadServices はコレクティブのサービス一覧をロードする。
func (r *PostgresCollectiveRepo) loadServices(ctx context.Context, c *model.Collective) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT title, description FROM collective_services
		 WHERE collective_id = $1 ORDER BY title`,
		c.ID)
	if err != nil {
		return fmt.Errorf("failed to load collective services: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s model.CollectiveService
		if err := rows.Scan(&s.Title, &s.Description); err != nil {
			return fmt.Errorf("failed to scan collective service: %w", err)
		}
		c.Services = append(c.Services, s)
	}
	return rows.Err()
}

// compile-time interface check
var _ CollectiveRepository = (*PostgresCollectiveRepo)(nil)
