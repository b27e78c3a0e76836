package mysql

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"paraiso_verde/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

const maxLimit = 500

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func clampLimit(n int) int {
	if n <= 0 || n > maxLimit {
		return maxLimit
	}
	return n
}

type Repo struct{ db *sql.DB }

var _ domain.Store = (*Repo)(nil)

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// Migrate applies the embedded schema in file order. Statements are
// idempotent, so it runs on every start.
func (r *Repo) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, n := range names {
		b, err := migrations.ReadFile(n)
		if err != nil {
			return err
		}
		for _, stmt := range strings.Split(string(b), ";") {
			if strings.TrimSpace(stmt) == "" {
				continue
			}
			if _, err := r.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrate %s: %w", n, err)
			}
		}
	}
	return nil
}

func (r *Repo) SaveInquiry(ctx context.Context, in domain.Inquiry) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertInquirySQL,
		in.Name,
		in.Email,
		nullStr(in.Phone),
		nullStr(in.Subject),
		in.Message,
		nullTime(in.CreatedAt),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) ListInquiries(ctx context.Context, limit int) ([]domain.Inquiry, error) {
	rows, err := r.db.QueryContext(ctx, listInquiriesSQL, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Inquiry
	for rows.Next() {
		var q domain.Inquiry
		var phone, subject sql.NullString
		if err := rows.Scan(&q.ID, &q.Name, &q.Email, &phone, &subject, &q.Message, &q.CreatedAt); err != nil {
			return nil, err
		}
		q.Phone, q.Subject = phone.String, subject.String
		out = append(out, q)
	}
	return out, rows.Err()
}

func (r *Repo) CountInquiries(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countInquiriesSQL).Scan(&n)
	return n, err
}

func (r *Repo) RecordAudit(ctx context.Context, ev domain.AuditEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.ExecContext(ctx, insertAuditSQL,
		ev.ID,
		ev.ActorID,
		ev.Actor,
		ev.Action,
		ev.Target,
		nullStr(ev.Detail),
		at.UTC(),
	)
	return err
}

func (r *Repo) RecentAudit(ctx context.Context, limit int) ([]domain.AuditEvent, error) {
	rows, err := r.db.QueryContext(ctx, recentAuditSQL, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AuditEvent
	for rows.Next() {
		var ev domain.AuditEvent
		var detail sql.NullString
		if err := rows.Scan(&ev.ID, &ev.ActorID, &ev.Actor, &ev.Action, &ev.Target, &detail, &ev.At); err != nil {
			return nil, err
		}
		ev.Detail = detail.String
		out = append(out, ev)
	}
	return out, rows.Err()
}
