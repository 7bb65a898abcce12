package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/karwaan/bazaar/internal/accounts/domain"
	"github.com/karwaan/bazaar/internal/accounts/store"
)

const accountColumns = `id, email, name, phone, avatar, role, status,
	email_verified, phone_verified, preferred_currency,
	pref_newsletter, pref_sms_notifications, pref_order_updates, pref_language, pref_timezone,
	banned_at, banned_by, ban_reason,
	suspended_at, suspended_until, suspension_reason,
	last_login_at, last_login_ip, login_count,
	version, created_at, updated_at`

type accountsRepo struct {
	q querier
}

func (r *accountsRepo) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *accountsRepo) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE email = ? LIMIT 1`,
		domain.NormalizeEmail(email))
	return scanAccount(row)
}

func (r *accountsRepo) GetByPhone(ctx context.Context, phone string) (domain.Account, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE phone = ? LIMIT 1`, phone)
	return scanAccount(row)
}

func (r *accountsRepo) Insert(ctx context.Context, a domain.Account) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		accountArgs(a)...)
	return mapConstraint(err)
}

func (r *accountsRepo) Update(ctx context.Context, a domain.Account) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE accounts SET
			email = ?, name = ?, phone = ?, avatar = ?, role = ?, status = ?,
			email_verified = ?, phone_verified = ?, preferred_currency = ?,
			pref_newsletter = ?, pref_sms_notifications = ?, pref_order_updates = ?,
			pref_language = ?, pref_timezone = ?,
			banned_at = ?, banned_by = ?, ban_reason = ?,
			suspended_at = ?, suspended_until = ?, suspension_reason = ?,
			last_login_at = ?, last_login_ip = ?, login_count = ?,
			version = ?, updated_at = ?
		WHERE id = ?`,
		a.Email, a.Name, a.Phone, a.Avatar, string(a.Role), string(a.Status),
		boolToInt(a.EmailVerified), boolToInt(a.PhoneVerified), string(a.PreferredCurrency),
		boolToInt(a.Preferences.Newsletter), boolToInt(a.Preferences.SMSNotifications),
		boolToInt(a.Preferences.OrderUpdates), a.Preferences.Language, a.Preferences.Timezone,
		fmtNullTime(a.StatusAudit.BannedAt), a.StatusAudit.BannedBy, a.StatusAudit.BanReason,
		fmtNullTime(a.StatusAudit.SuspendedAt), fmtNullTime(a.StatusAudit.SuspendedUntil),
		a.StatusAudit.SuspensionReason,
		fmtNullTime(a.Login.LastLoginAt), a.Login.LastLoginIP, a.Login.LoginCount,
		a.Version, fmtTime(a.UpdatedAt),
		a.ID,
	)
	if err != nil {
		return mapConstraint(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *accountsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *accountsRepo) List(ctx context.Context, f store.ListFilter) ([]domain.Account, error) {
	where, args := buildFilter(f)

	query := `SELECT ` + accountColumns + ` FROM accounts` + where +
		` ORDER BY created_at DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d OFFSET %d`, f.Limit, f.Offset)
	}

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *accountsRepo) Count(ctx context.Context, f store.ListFilter) (int64, error) {
	where, args := buildFilter(f)

	var count int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`+where, args...).
		Scan(&count)
	return count, err
}

func buildFilter(f store.ListFilter) (string, []any) {
	var conds []string
	var args []any

	if f.Role != nil {
		conds = append(conds, "role = ?")
		args = append(args, string(*f.Role))
	}
	if f.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, string(*f.Status))
	}
	if f.EmailVerified != nil {
		conds = append(conds, "email_verified = ?")
		args = append(args, boolToInt(*f.EmailVerified))
	}
	if f.CreatedAfter != nil {
		conds = append(conds, "created_at >= ?")
		args = append(args, fmtTime(*f.CreatedAfter))
	}
	if f.CreatedBefore != nil {
		conds = append(conds, "created_at <= ?")
		args = append(args, fmtTime(*f.CreatedBefore))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// scanner lets scanAccount serve both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (domain.Account, error) {
	var (
		a                                     domain.Account
		role, status, currency                string
		emailVerified, phoneVerified          int64
		newsletter, smsNotifs, orderUpdates   int64
		bannedAt, suspendedAt, suspendedUntil sql.NullString
		lastLoginAt                           sql.NullString
		createdAt, updatedAt                  string
	)

	err := s.Scan(
		&a.ID, &a.Email, &a.Name, &a.Phone, &a.Avatar, &role, &status,
		&emailVerified, &phoneVerified, &currency,
		&newsletter, &smsNotifs, &orderUpdates,
		&a.Preferences.Language, &a.Preferences.Timezone,
		&bannedAt, &a.StatusAudit.BannedBy, &a.StatusAudit.BanReason,
		&suspendedAt, &suspendedUntil, &a.StatusAudit.SuspensionReason,
		&lastLoginAt, &a.Login.LastLoginIP, &a.Login.LoginCount,
		&a.Version, &createdAt, &updatedAt,
	)
	if err != nil {
		return domain.Account{}, mapNotFound(err)
	}

	a.Role = domain.Role(role)
	a.Status = domain.Status(status)
	a.PreferredCurrency = domain.Currency(currency)
	a.EmailVerified = emailVerified != 0
	a.PhoneVerified = phoneVerified != 0
	a.Preferences.Newsletter = newsletter != 0
	a.Preferences.SMSNotifications = smsNotifs != 0
	a.Preferences.OrderUpdates = orderUpdates != 0
	a.StatusAudit.BannedAt = parseNullTime(bannedAt)
	a.StatusAudit.SuspendedAt = parseNullTime(suspendedAt)
	a.StatusAudit.SuspendedUntil = parseNullTime(suspendedUntil)
	a.Login.LastLoginAt = parseNullTime(lastLoginAt)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return a, nil
}

func accountArgs(a domain.Account) []any {
	return []any{
		a.ID, a.Email, a.Name, a.Phone, a.Avatar, string(a.Role), string(a.Status),
		boolToInt(a.EmailVerified), boolToInt(a.PhoneVerified), string(a.PreferredCurrency),
		boolToInt(a.Preferences.Newsletter), boolToInt(a.Preferences.SMSNotifications),
		boolToInt(a.Preferences.OrderUpdates), a.Preferences.Language, a.Preferences.Timezone,
		fmtNullTime(a.StatusAudit.BannedAt), a.StatusAudit.BannedBy, a.StatusAudit.BanReason,
		fmtNullTime(a.StatusAudit.SuspendedAt), fmtNullTime(a.StatusAudit.SuspendedUntil),
		a.StatusAudit.SuspensionReason,
		fmtNullTime(a.Login.LastLoginAt), a.Login.LastLoginIP, a.Login.LoginCount,
		a.Version, fmtTime(a.CreatedAt), fmtTime(a.UpdatedAt),
	}
}
