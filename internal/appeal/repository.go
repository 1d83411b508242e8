package appeal

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"

	"appealbot/internal/database"
	"appealbot/internal/domain"
)

// Store is the durable appeal table. It is the single source of truth for
// appeal status; nothing else mutates an appeal record.
type Store interface {
	Save(ctx context.Context, appeal *Appeal) error
	GetByID(ctx context.Context, appealID int64) (Appeal, error)
	Pending(ctx context.Context) ([]Appeal, error)
	Transition(ctx context.Context, appealID int64, status Status) (Appeal, bool, error)
	Stats(ctx context.Context) (Stats, error)
}

type Repository struct {
	db database.Database
}

func NewRepository(db database.Database) *Repository {
	return &Repository{db: db}
}

const appealColumns = "appeal_id, user_id, username, kind, text, status, submitted_on, created_on"

// Save inserts a new pending appeal, assigning its id.
func (r *Repository) Save(ctx context.Context, appeal *Appeal) error {
	builder := r.db.
		Builder().
		Insert("appeal").
		SetMap(map[string]any{
			"user_id":      appeal.UserID,
			"username":     appeal.Username,
			"kind":         string(appeal.Kind),
			"text":         appeal.Text,
			"status":       string(Pending),
			"submitted_on": appeal.SubmittedOn,
			"created_on":   appeal.CreatedOn,
		}).
		Suffix("RETURNING appeal_id")

	if errInsert := r.db.ExecInsertBuilderWithReturnValue(ctx, builder, &appeal.AppealID); errInsert != nil {
		return database.DBErr(errInsert)
	}

	appeal.Status = Pending

	return nil
}

func (r *Repository) GetByID(ctx context.Context, appealID int64) (Appeal, error) {
	row, errRow := r.db.QueryRowBuilder(ctx, r.db.
		Builder().
		Select("appeal_id", "user_id", "username", "kind", "text", "status", "submitted_on", "created_on").
		From("appeal").
		Where(sq.Eq{"appeal_id": appealID}))
	if errRow != nil {
		return Appeal{}, database.DBErr(errRow)
	}

	var appeal Appeal
	if errScan := row.Scan(&appeal.AppealID, &appeal.UserID, &appeal.Username, &appeal.Kind,
		&appeal.Text, &appeal.Status, &appeal.SubmittedOn, &appeal.CreatedOn); errScan != nil {
		return Appeal{}, database.DBErr(errScan)
	}

	return appeal, nil
}

// Pending returns all undecided appeals, most recently created first.
func (r *Repository) Pending(ctx context.Context) ([]Appeal, error) {
	rows, errQuery := r.db.QueryBuilder(ctx, r.db.
		Builder().
		Select("appeal_id", "user_id", "username", "kind", "text", "status", "submitted_on", "created_on").
		From("appeal").
		Where(sq.Eq{"status": string(Pending)}).
		OrderBy("created_on DESC"))
	if errQuery != nil {
		return nil, database.DBErr(errQuery)
	}

	defer rows.Close()

	var appeals []Appeal

	for rows.Next() {
		var appeal Appeal
		if errScan := rows.Scan(&appeal.AppealID, &appeal.UserID, &appeal.Username, &appeal.Kind,
			&appeal.Text, &appeal.Status, &appeal.SubmittedOn, &appeal.CreatedOn); errScan != nil {
			return nil, errors.Join(errScan, domain.ErrScanResult)
		}

		appeals = append(appeals, appeal)
	}

	return appeals, nil
}

// Transition conditionally moves an appeal out of pending. The check and the
// write are a single statement so concurrent reviews of the same appeal can
// never both win; the loser sees applied=false with no error.
func (r *Repository) Transition(ctx context.Context, appealID int64, status Status) (Appeal, bool, error) {
	if !status.Terminal() {
		return Appeal{}, false, domain.ErrInvalidParameter
	}

	query, args, errQuery := r.db.
		Builder().
		Update("appeal").
		Set("status", string(status)).
		Where(sq.Eq{"appeal_id": appealID, "status": string(Pending)}).
		Suffix("RETURNING " + appealColumns).
		ToSql()
	if errQuery != nil {
		return Appeal{}, false, errors.Join(errQuery, domain.ErrCreateQuery)
	}

	var appeal Appeal
	if errScan := r.db.QueryRow(ctx, query, args...).Scan(&appeal.AppealID, &appeal.UserID, &appeal.Username,
		&appeal.Kind, &appeal.Text, &appeal.Status, &appeal.SubmittedOn, &appeal.CreatedOn); errScan != nil {
		if errors.Is(database.DBErr(errScan), database.ErrNoResult) {
			return Appeal{}, false, nil
		}

		return Appeal{}, false, database.DBErr(errScan)
	}

	return appeal, true, nil
}

// Stats aggregates appeal counts by status, kind and trailing windows along
// with the current roster size.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByKind: map[Kind]int64{}}

	row, errRow := r.db.QueryRowBuilder(ctx, r.db.
		Builder().
		Select(
			"count(*)",
			"count(*) FILTER (WHERE status = 'pending')",
			"count(*) FILTER (WHERE status = 'approved')",
			"count(*) FILTER (WHERE status = 'rejected')",
			"count(*) FILTER (WHERE created_on >= now() - INTERVAL '1 day')",
			"count(*) FILTER (WHERE created_on >= now() - INTERVAL '7 days')").
		From("appeal"))
	if errRow != nil {
		return stats, database.DBErr(errRow)
	}

	if errScan := row.Scan(&stats.Total, &stats.Pending, &stats.Approved, &stats.Rejected,
		&stats.Last24h, &stats.Last7d); errScan != nil {
		return stats, database.DBErr(errScan)
	}

	rows, errKinds := r.db.QueryBuilder(ctx, r.db.
		Builder().
		Select("kind", "count(*)").
		From("appeal").
		GroupBy("kind"))
	if errKinds != nil {
		return stats, database.DBErr(errKinds)
	}

	defer rows.Close()

	for rows.Next() {
		var (
			kind  Kind
			count int64
		)

		if errScan := rows.Scan(&kind, &count); errScan != nil {
			return stats, errors.Join(errScan, domain.ErrScanResult)
		}

		stats.ByKind[kind] = count
	}

	admins, errAdmins := r.db.GetCount(ctx, r.db.
		Builder().
		Select("count(*)").
		From("admin"))
	if errAdmins != nil {
		return stats, database.DBErr(errAdmins)
	}

	stats.Admins = admins

	return stats, nil
}
