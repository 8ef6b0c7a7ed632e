package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/query-system/internal/model"
)

// mysqlDuplicateEntry is the server error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// tables maps each role to the table that holds its directory.
var tables = map[model.Role]string{
	model.RoleUser:   "users",
	model.RoleMentor: "mentors",
	model.RoleAdmin:  "admins",
}

const accountColumns = "id,email,otp_code,otp_expiry,active,profile,created_at"

// AccountRepo is the MySQL-backed AccountStore for a single role.
type AccountRepo struct {
	DB    *sql.DB
	role  model.Role
	table string
}

// NewAccountRepo binds a repository to the table of the given role.  It
// panics on an unknown role.
func NewAccountRepo(db *sql.DB, role model.Role) *AccountRepo {
	table, ok := tables[role]
	if !ok {
		panic(fmt.Sprintf("no account table for role %q", role))
	}
	return &AccountRepo{DB: db, role: role, table: table}
}

// NormalizeEmail is the canonical form used for every email lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

func encodeProfile(p model.Profile) ([]byte, error) {
	if p == nil {
		p = model.Profile{}
	}
	return json.Marshal(p)
}

// Create inserts the account.  A duplicate email yields ErrEmailExists.
func (r *AccountRepo) Create(ctx context.Context, a *model.Account) error {
	a.Email = NormalizeEmail(a.Email)
	if a.CreatedAt.IsZero() {
		a.CreatedAt = nowUTC()
	}
	profile, err := encodeProfile(a.Profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO "+r.table+" ("+accountColumns+") VALUES (?,?,?,?,?,?,?)",
		a.ID, a.Email, a.OTPCode, a.OTPExpiry, a.Active, profile, a.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Save replaces every column of the row with a.ID, or inserts the row when
// no such id exists yet.  The connection must report matched rather than
// changed rows (clientFoundRows=true) so that an identical rewrite is not
// mistaken for a missing row.
func (r *AccountRepo) Save(ctx context.Context, a *model.Account) error {
	a.Email = NormalizeEmail(a.Email)
	profile, err := encodeProfile(a.Profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE "+r.table+" SET email=?, otp_code=?, otp_expiry=?, active=?, profile=? WHERE id=?",
		a.Email, a.OTPCode, a.OTPExpiry, a.Active, profile, a.ID)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n > 0 {
		return nil
	}
	return r.Create(ctx, a)
}

// FindByID fetches an account by id.
func (r *AccountRepo) FindByID(ctx context.Context, id string) (*model.Account, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM "+r.table+" WHERE id=? LIMIT 1", id)
	return r.scan(row)
}

// FindByEmail fetches an account by normalised email.
func (r *AccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM "+r.table+" WHERE email=? LIMIT 1", NormalizeEmail(email))
	return r.scan(row)
}

func (r *AccountRepo) scan(row *sql.Row) (*model.Account, error) {
	var (
		a       model.Account
		code    sql.NullString
		expiry  sql.NullTime
		profile []byte
	)
	err := row.Scan(&a.ID, &a.Email, &code, &expiry, &a.Active, &profile, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	a.Role = r.role
	if code.Valid && expiry.Valid {
		a.SetOTP(code.String, expiry.Time.UTC())
	}
	if len(profile) > 0 {
		if err := json.Unmarshal(profile, &a.Profile); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
	}
	a.CreatedAt = a.CreatedAt.UTC()
	return &a, nil
}

// nowUTC is shared by the stores for default timestamps.
func nowUTC() time.Time { return time.Now().UTC() }
