package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Users

func (s *PostgresStore) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, email, password_hash, role FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `SELECT id, email, password_hash, role FROM users WHERE id=$1`, id).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role)
	if err != nil {
		return User{}, mapRowError(err, "get user")
	}
	return user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `SELECT id, email, password_hash, role FROM users WHERE LOWER(email) = LOWER(TRIM($1))`, email).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Role)
	if err != nil {
		return User{}, mapRowError(err, "get user by email")
	}
	return user, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, fmt.Errorf("begin create user: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if user.ID == 0 {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO users (email, password_hash, role)
			VALUES ($1, $2, $3)
			RETURNING id
		`, user.Email, user.PasswordHash, user.Role).Scan(&user.ID)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO users (id, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
		`, user.ID, user.Email, user.PasswordHash, user.Role)
		if err == nil {
			err = syncSequence(ctx, tx, "users")
		}
	}
	if err != nil {
		return User{}, mapWriteError(err, "create user")
	}
	if err := tx.Commit(); err != nil {
		return User{}, fmt.Errorf("commit create user: %w", err)
	}
	return user, nil
}

// DeleteUser relies on ON DELETE CASCADE to drop the user's invitations.
func (s *PostgresStore) DeleteUser(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete user", `DELETE FROM users WHERE id=$1`, id)
}

// Guides

const guideColumns = `id, title, description, number_of_days, destination, cover_image_url, mobility, season, for_who, created_by_user_id`

func scanGuide(scanner interface{ Scan(...any) error }) (Guide, error) {
	var guide Guide
	var destination, cover sql.NullString
	var mobility, season, forWho string
	err := scanner.Scan(&guide.ID, &guide.Title, &guide.Description, &guide.NumberOfDays,
		&destination, &cover, &mobility, &season, &forWho, &guide.CreatedByUserID)
	if err != nil {
		return Guide{}, err
	}
	guide.Destination = fromNullString(destination)
	guide.CoverImageURL = fromNullString(cover)
	guide.Mobility = Mobility(mobility)
	guide.Season = Season(season)
	guide.ForWho = ForWho(forWho)
	return guide, nil
}

func (s *PostgresStore) ListGuides(ctx context.Context) ([]Guide, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+guideColumns+` FROM guides ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list guides: %w", err)
	}
	defer rows.Close()

	guides := make([]Guide, 0)
	for rows.Next() {
		guide, err := scanGuide(rows)
		if err != nil {
			return nil, fmt.Errorf("scan guide: %w", err)
		}
		guides = append(guides, guide)
	}
	return guides, rows.Err()
}

func (s *PostgresStore) GetGuide(ctx context.Context, id int64) (Guide, error) {
	guide, err := scanGuide(s.db.QueryRowContext(ctx, `SELECT `+guideColumns+` FROM guides WHERE id=$1`, id))
	if err != nil {
		return Guide{}, mapRowError(err, "get guide")
	}
	return guide, nil
}

func (s *PostgresStore) CreateGuide(ctx context.Context, guide Guide, days []GuideDay) (Guide, []GuideDay, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Guide{}, nil, fmt.Errorf("begin create guide: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	args := []any{guide.Title, guide.Description, guide.NumberOfDays,
		toNullString(guide.Destination), toNullString(guide.CoverImageURL),
		string(guide.Mobility), string(guide.Season), string(guide.ForWho), guide.CreatedByUserID}
	if guide.ID == 0 {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO guides (title, description, number_of_days, destination, cover_image_url, mobility, season, for_who, created_by_user_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id
		`, args...).Scan(&guide.ID)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO guides (title, description, number_of_days, destination, cover_image_url, mobility, season, for_who, created_by_user_id, id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, append(args, guide.ID)...)
		if err == nil {
			err = syncSequence(ctx, tx, "guides")
		}
	}
	if err != nil {
		return Guide{}, nil, mapWriteError(err, "create guide")
	}

	created := make([]GuideDay, 0, len(days))
	explicitIDs := false
	for _, day := range days {
		day.GuideID = guide.ID
		inserted, err := insertDay(ctx, tx, day)
		if err != nil {
			return Guide{}, nil, err
		}
		explicitIDs = explicitIDs || day.ID != 0
		created = append(created, inserted)
	}
	if explicitIDs {
		if err := syncSequence(ctx, tx, "guide_days"); err != nil {
			return Guide{}, nil, fmt.Errorf("sync guide_days sequence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Guide{}, nil, fmt.Errorf("commit create guide: %w", err)
	}
	return guide, created, nil
}

// UpdateGuide rewrites the guide row, inserts the added days and drops the
// days numbered above NumberOfDays in one transaction. It returns the ids of
// the activities that went with the dropped days.
func (s *PostgresStore) UpdateGuide(ctx context.Context, guide Guide, added []GuideDay) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update guide: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		UPDATE guides
		SET title=$2, description=$3, number_of_days=$4, destination=$5, cover_image_url=$6,
			mobility=$7, season=$8, for_who=$9
		WHERE id=$1
	`, guide.ID, guide.Title, guide.Description, guide.NumberOfDays,
		toNullString(guide.Destination), toNullString(guide.CoverImageURL),
		string(guide.Mobility), string(guide.Season), string(guide.ForWho))
	if err != nil {
		return nil, mapWriteError(err, "update guide")
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrNotFound
	}

	rows, err := tx.QueryContext(ctx, `
		DELETE FROM activities a
		USING guide_days d
		WHERE a.guide_day_id = d.id AND d.guide_id = $1 AND d.day_number > $2
		RETURNING a.id
	`, guide.ID, guide.NumberOfDays)
	if err != nil {
		return nil, fmt.Errorf("delete trailing activities: %w", err)
	}
	var removed []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan removed activity: %w", err)
		}
		removed = append(removed, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("delete trailing activities: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM guide_days WHERE guide_id=$1 AND day_number > $2`, guide.ID, guide.NumberOfDays); err != nil {
		return nil, fmt.Errorf("delete days after %d: %w", guide.NumberOfDays, err)
	}

	for _, day := range added {
		day.GuideID = guide.ID
		if _, err := insertDay(ctx, tx, day); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update guide: %w", err)
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	return removed, nil
}

// DeleteGuide relies on ON DELETE CASCADE for days, activities and invitations.
func (s *PostgresStore) DeleteGuide(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete guide", `DELETE FROM guides WHERE id=$1`, id)
}

// Days

func scanDay(scanner interface{ Scan(...any) error }) (GuideDay, error) {
	var day GuideDay
	var date sql.NullTime
	if err := scanner.Scan(&day.ID, &day.GuideID, &day.DayNumber, &day.Title, &date); err != nil {
		return GuideDay{}, err
	}
	if date.Valid {
		value := time.Date(date.Time.Year(), date.Time.Month(), date.Time.Day(), 0, 0, 0, 0, time.UTC)
		day.Date = &value
	}
	return day, nil
}

func (s *PostgresStore) ListDays(ctx context.Context, guideID int64) ([]GuideDay, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guide_id, day_number, title, date
		FROM guide_days
		WHERE guide_id=$1
		ORDER BY day_number, id
	`, guideID)
	if err != nil {
		return nil, fmt.Errorf("list days: %w", err)
	}
	defer rows.Close()

	days := make([]GuideDay, 0)
	for rows.Next() {
		day, err := scanDay(rows)
		if err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

func (s *PostgresStore) GetDay(ctx context.Context, id int64) (GuideDay, error) {
	day, err := scanDay(s.db.QueryRowContext(ctx, `SELECT id, guide_id, day_number, title, date FROM guide_days WHERE id=$1`, id))
	if err != nil {
		return GuideDay{}, mapRowError(err, "get day")
	}
	return day, nil
}

func insertDay(ctx context.Context, tx *sql.Tx, day GuideDay) (GuideDay, error) {
	var err error
	if day.ID == 0 {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO guide_days (guide_id, day_number, title, date)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, day.GuideID, day.DayNumber, day.Title, toNullDate(day.Date)).Scan(&day.ID)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO guide_days (id, guide_id, day_number, title, date)
			VALUES ($1, $2, $3, $4, $5)
		`, day.ID, day.GuideID, day.DayNumber, day.Title, toNullDate(day.Date))
	}
	if err != nil {
		return GuideDay{}, mapWriteError(err, "insert day")
	}
	return day, nil
}

func (s *PostgresStore) UpdateDay(ctx context.Context, day GuideDay) error {
	return s.execOne(ctx, "update day", `UPDATE guide_days SET title=$2, date=$3 WHERE id=$1`,
		day.ID, day.Title, toNullDate(day.Date))
}

// Activities

const activityColumns = `a.id, a.guide_day_id, a.title, a.description, a.category, a.address,
	a.phone_number, a.opening_hours, a.website, a.start_time, a.end_time, a.for_who, a.visit_order`

func scanActivity(scanner interface{ Scan(...any) error }) (Activity, error) {
	var activity Activity
	var category, forWho string
	var phone, hours, website, start, end sql.NullString
	err := scanner.Scan(&activity.ID, &activity.GuideDayID, &activity.Title, &activity.Description,
		&category, &activity.Address, &phone, &hours, &website, &start, &end, &forWho, &activity.VisitOrder)
	if err != nil {
		return Activity{}, err
	}
	activity.Category = ActivityCategory(category)
	activity.ForWho = ForWho(forWho)
	activity.PhoneNumber = fromNullString(phone)
	activity.OpeningHours = fromNullString(hours)
	activity.Website = fromNullString(website)
	activity.StartTime = fromNullString(start)
	activity.EndTime = fromNullString(end)
	return activity, nil
}

func (s *PostgresStore) queryActivities(ctx context.Context, query string, args ...any) ([]Activity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	activities := make([]Activity, 0)
	for rows.Next() {
		activity, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, activity)
	}
	return activities, rows.Err()
}

func (s *PostgresStore) ListActivities(ctx context.Context, dayID int64) ([]Activity, error) {
	return s.queryActivities(ctx, `
		SELECT `+activityColumns+`
		FROM activities a
		WHERE a.guide_day_id=$1
		ORDER BY a.visit_order, a.id
	`, dayID)
}

func (s *PostgresStore) ListGuideActivities(ctx context.Context, guideID int64) ([]Activity, error) {
	return s.queryActivities(ctx, `
		SELECT `+activityColumns+`
		FROM activities a
		JOIN guide_days d ON d.id = a.guide_day_id
		WHERE d.guide_id=$1
		ORDER BY a.visit_order, a.id
	`, guideID)
}

func (s *PostgresStore) GetActivity(ctx context.Context, id int64) (Activity, error) {
	activity, err := scanActivity(s.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activities a WHERE a.id=$1`, id))
	if err != nil {
		return Activity{}, mapRowError(err, "get activity")
	}
	return activity, nil
}

func activityArgs(activity Activity) []any {
	return []any{activity.GuideDayID, activity.Title, activity.Description, string(activity.Category), activity.Address,
		toNullString(activity.PhoneNumber), toNullString(activity.OpeningHours), toNullString(activity.Website),
		toNullString(activity.StartTime), toNullString(activity.EndTime), string(activity.ForWho), activity.VisitOrder}
}

func (s *PostgresStore) CreateActivity(ctx context.Context, activity Activity) (Activity, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Activity{}, fmt.Errorf("begin create activity: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if activity.ID == 0 {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO activities (guide_day_id, title, description, category, address, phone_number,
				opening_hours, website, start_time, end_time, for_who, visit_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id
		`, activityArgs(activity)...).Scan(&activity.ID)
	} else {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO activities (guide_day_id, title, description, category, address, phone_number,
				opening_hours, website, start_time, end_time, for_who, visit_order, id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`, append(activityArgs(activity), activity.ID)...)
		if err == nil {
			err = syncSequence(ctx, tx, "activities")
		}
	}
	if err != nil {
		return Activity{}, mapWriteError(err, "create activity")
	}
	if err := tx.Commit(); err != nil {
		return Activity{}, fmt.Errorf("commit create activity: %w", err)
	}
	return activity, nil
}

func (s *PostgresStore) UpdateActivity(ctx context.Context, activity Activity) error {
	return s.execOne(ctx, "update activity", `
		UPDATE activities
		SET guide_day_id=$1, title=$2, description=$3, category=$4, address=$5, phone_number=$6,
			opening_hours=$7, website=$8, start_time=$9, end_time=$10, for_who=$11, visit_order=$12
		WHERE id=$13
	`, append(activityArgs(activity), activity.ID)...)
}

func (s *PostgresStore) DeleteActivity(ctx context.Context, id int64) error {
	return s.execOne(ctx, "delete activity", `DELETE FROM activities WHERE id=$1`, id)
}

func (s *PostgresStore) SetVisitOrders(ctx context.Context, orders []VisitOrder) error {
	if len(orders) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set visit orders: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, order := range orders {
		result, err := tx.ExecContext(ctx, `UPDATE activities SET visit_order=$2 WHERE id=$1`, order.ActivityID, order.VisitOrder)
		if err != nil {
			return fmt.Errorf("set visit order for activity %d: %w", order.ActivityID, err)
		}
		if affected, err := result.RowsAffected(); err == nil && affected == 0 {
			return fmt.Errorf("set visit order for activity %d: %w", order.ActivityID, ErrNotFound)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit visit orders: %w", err)
	}
	return nil
}

// Invitations

func (s *PostgresStore) ListInvitations(ctx context.Context, guideID int64) ([]InvitedUser, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT gi.guide_id, u.id, u.email, u.role
		FROM guide_invitations gi
		JOIN users u ON u.id = gi.user_id
		WHERE gi.guide_id=$1
		ORDER BY u.id
	`, guideID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	invited := make([]InvitedUser, 0)
	for rows.Next() {
		var entry InvitedUser
		if err := rows.Scan(&entry.GuideID, &entry.UserID, &entry.Email, &entry.Role); err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		invited = append(invited, entry)
	}
	return invited, rows.Err()
}

func (s *PostgresStore) ListInvitedGuideIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT guide_id FROM guide_invitations WHERE user_id=$1 ORDER BY guide_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list invited guides: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan invited guide: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) HasInvitation(ctx context.Context, guideID, userID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM guide_invitations WHERE guide_id=$1 AND user_id=$2)
	`, guideID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check invitation: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) CreateInvitation(ctx context.Context, invitation Invitation) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO guide_invitations (guide_id, user_id) VALUES ($1, $2)`,
		invitation.GuideID, invitation.UserID)
	if err != nil {
		return mapWriteError(err, "create invitation")
	}
	return nil
}

func (s *PostgresStore) DeleteInvitation(ctx context.Context, guideID, userID int64) error {
	return s.execOne(ctx, "delete invitation", `DELETE FROM guide_invitations WHERE guide_id=$1 AND user_id=$2`, guideID, userID)
}

// execOne runs a write that must touch exactly one row.
func (s *PostgresStore) execOne(ctx context.Context, op, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapWriteError(err, op)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// syncSequence moves a BIGSERIAL sequence past rows inserted with explicit ids.
func syncSequence(ctx context.Context, tx *sql.Tx, table string) error {
	_, err := tx.ExecContext(ctx, fmt.Sprintf(
		`SELECT setval(pg_get_serial_sequence('%s', 'id'), GREATEST((SELECT MAX(id) FROM %s), 1))`, table, table))
	return err
}

func mapRowError(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func mapWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%s: %w", op, ErrConflict)
		case "23503":
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func toNullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func fromNullString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	out := value.String
	return &out
}

func toNullDate(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *value, Valid: true}
}
