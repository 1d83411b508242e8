package admin

import (
	"context"
	"errors"
	"log/slog"

	sq "github.com/Masterminds/squirrel"

	"appealbot/internal/database"
	"appealbot/internal/domain"
)

// Roster is the durable set of reviewer identities.
type Roster interface {
	SeedIfEmpty(ctx context.Context, userIDs []int64, seededBy int64) error
	Add(ctx context.Context, entry Admin) error
	Remove(ctx context.Context, userID int64) error
	Exists(ctx context.Context, userID int64) (bool, error)
	List(ctx context.Context) ([]Admin, error)
}

type Repository struct {
	db database.Database
}

func NewRepository(db database.Database) *Repository {
	return &Repository{db: db}
}

// SeedIfEmpty populates the roster from static config at first boot. It only
// fires when the roster is empty, which makes repeated calls a no-op.
func (r *Repository) SeedIfEmpty(ctx context.Context, userIDs []int64, seededBy int64) error {
	if len(userIDs) == 0 {
		return nil
	}

	count, errCount := r.db.GetCount(ctx, r.db.
		Builder().
		Select("count(*)").
		From("admin"))
	if errCount != nil {
		return database.DBErr(errCount)
	}

	if count > 0 {
		return nil
	}

	builder := r.db.
		Builder().
		Insert("admin").
		Columns("user_id", "added_by").
		Suffix("ON CONFLICT (user_id) DO NOTHING")

	for _, userID := range userIDs {
		builder = builder.Values(userID, seededBy)
	}

	if errInsert := r.db.ExecInsertBuilder(ctx, builder); errInsert != nil {
		return database.DBErr(errInsert)
	}

	slog.Info("Seeded admin roster from config", slog.Int("count", len(userIDs)))

	return nil
}

func (r *Repository) Add(ctx context.Context, entry Admin) error {
	errInsert := r.db.ExecInsertBuilder(ctx, r.db.
		Builder().
		Insert("admin").
		SetMap(map[string]any{
			"user_id":  entry.UserID,
			"added_by": entry.AddedBy,
			"added_on": entry.AddedOn,
		}))
	if errInsert != nil {
		return database.DBErr(errInsert)
	}

	return nil
}

// Remove deletes a roster entry in one conditional statement; no matching
// row means the user was never an admin.
func (r *Repository) Remove(ctx context.Context, userID int64) error {
	query, args, errQuery := r.db.
		Builder().
		Delete("admin").
		Where(sq.Eq{"user_id": userID}).
		Suffix("RETURNING user_id").
		ToSql()
	if errQuery != nil {
		return errors.Join(errQuery, domain.ErrCreateQuery)
	}

	var removed int64
	if errScan := r.db.QueryRow(ctx, query, args...).Scan(&removed); errScan != nil {
		if errors.Is(database.DBErr(errScan), database.ErrNoResult) {
			return domain.ErrNotAdmin
		}

		return database.DBErr(errScan)
	}

	return nil
}

func (r *Repository) Exists(ctx context.Context, userID int64) (bool, error) {
	count, errCount := r.db.GetCount(ctx, r.db.
		Builder().
		Select("count(*)").
		From("admin").
		Where(sq.Eq{"user_id": userID}))
	if errCount != nil {
		return false, database.DBErr(errCount)
	}

	return count > 0, nil
}

func (r *Repository) List(ctx context.Context) ([]Admin, error) {
	rows, errQuery := r.db.QueryBuilder(ctx, r.db.
		Builder().
		Select("user_id", "added_by", "added_on").
		From("admin").
		OrderBy("user_id"))
	if errQuery != nil {
		return nil, database.DBErr(errQuery)
	}

	defer rows.Close()

	var admins []Admin

	for rows.Next() {
		var entry Admin
		if errScan := rows.Scan(&entry.UserID, &entry.AddedBy, &entry.AddedOn); errScan != nil {
			return nil, errors.Join(errScan, domain.ErrScanResult)
		}

		admins = append(admins, entry)
	}

	return admins, nil
}
