package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pokesag/pokesag/internal/query"
)

// Message is one received page.
type Message struct {
	ID        int64     `json:"id"`
	RxDate    time.Time `json:"rx_date"`
	Source    string    `json:"source"`
	Recipient string    `json:"recipient"`
	Content   string    `json:"content"`
}

// rxDateLayout stores receive times in UTC at second precision so that
// text ordering matches time ordering.
const rxDateLayout = "2006-01-02 15:04:05"

// Pages returns the rows selected by plan, newest first.
func (s *Store) Pages(ctx context.Context, plan query.Plan) ([]Message, error) {
	where, args := plan.Filter(s.fts5Available)

	q := "SELECT id, rx_date, source, recipient, content FROM pages"
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY " + query.OrderBy + " LIMIT ? OFFSET ?"
	args = append(args, plan.Limit, plan.Offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query pages (%s): %w", plan.Mode, err)
	}
	defer rows.Close()

	msgs := make([]Message, 0, plan.Limit)
	for rows.Next() {
		var (
			m      Message
			rxDate string
		)
		if err := rows.Scan(&m.ID, &rxDate, &m.Source, &m.Recipient, &m.Content); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		m.RxDate, err = parseRxDate(rxDate)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", m.ID, err)
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pages: %w", err)
	}
	return msgs, nil
}

// Insert stores m and returns its id. m.ID is ignored.
func (s *Store) Insert(ctx context.Context, m Message) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO pages (rx_date, source, recipient, content) VALUES (?, ?, ?, ?)`,
		formatRxDate(m.RxDate), m.Source, m.Recipient, m.Content)
	if err != nil {
		return 0, fmt.Errorf("insert page: %w", err)
	}
	return res.LastInsertId()
}

// InsertBatch stores msgs in one transaction.
func (s *Store) InsertBatch(ctx context.Context, msgs []Message) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO pages (rx_date, source, recipient, content) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()
		for _, m := range msgs {
			if _, err := stmt.ExecContext(ctx, formatRxDate(m.RxDate), m.Source, m.Recipient, m.Content); err != nil {
				return fmt.Errorf("insert page: %w", err)
			}
		}
		return nil
	})
}

func formatRxDate(t time.Time) string {
	return t.UTC().Format(rxDateLayout)
}

// parseRxDate accepts the stored layout plus the RFC 3339 and fractional
// forms other writers produce.
func parseRxDate(s string) (time.Time, error) {
	layouts := []string{
		rxDateLayout,
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05.999999999-07:00",
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized rx_date %q", s)
}
