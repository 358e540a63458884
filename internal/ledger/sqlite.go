package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the operational audit ledger: connection lifecycle rows and
// per-topic delivery counters. Event payloads are never written here.
type Store struct {
	db *sql.DB
}

type ConnectionRecord struct {
	ConnID      string
	UserID      string
	Endpoint    string
	ConnectedAt time.Time
	ClosedAt    time.Time
	CloseReason string
}

type DeliveryTotal struct {
	Topic     string
	Sent      int64
	Failed    int64
	UpdatedAt time.Time
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Init(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS connection_log (
  conn_id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL DEFAULT '',
  endpoint TEXT NOT NULL DEFAULT '',
  connected_at TEXT NOT NULL,
  closed_at TEXT NOT NULL DEFAULT '',
  close_reason TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_connection_log_connected_at ON connection_log(connected_at);
CREATE TABLE IF NOT EXISTS topic_deliveries (
  topic TEXT PRIMARY KEY,
  sent INTEGER NOT NULL DEFAULT 0,
  failed INTEGER NOT NULL DEFAULT 0,
  updated_at TEXT NOT NULL
);`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) LogConnectionOpened(ctx context.Context, connID, userID, endpoint string, at time.Time) error {
	if connID == "" {
		return fmt.Errorf("conn id is required")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO connection_log(conn_id, user_id, endpoint, connected_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(conn_id) DO NOTHING`,
		connID, userID, endpoint, at.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *Store) LogConnectionClosed(ctx context.Context, connID, reason string, at time.Time) error {
	if connID == "" {
		return fmt.Errorf("conn id is required")
	}
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE connection_log SET closed_at=?, close_reason=? WHERE conn_id=?`,
		at.UTC().Format(time.RFC3339Nano), reason, connID,
	)
	return err
}

func (s *Store) AddDelivery(ctx context.Context, topic string, sent, failed int64) error {
	if topic == "" {
		return fmt.Errorf("topic is required")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO topic_deliveries(topic, sent, failed, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(topic) DO UPDATE SET
		   sent=sent+excluded.sent,
		   failed=failed+excluded.failed,
		   updated_at=excluded.updated_at`,
		topic, sent, failed, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *Store) GetConnection(ctx context.Context, connID string) (ConnectionRecord, error) {
	var out ConnectionRecord
	var tsConnected, tsClosed string
	row := s.db.QueryRowContext(
		ctx,
		`SELECT conn_id, user_id, endpoint, connected_at, closed_at, close_reason
		 FROM connection_log WHERE conn_id=?`,
		connID,
	)
	if err := row.Scan(&out.ConnID, &out.UserID, &out.Endpoint, &tsConnected, &tsClosed, &out.CloseReason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ConnectionRecord{}, fmt.Errorf("connection record not found")
		}
		return ConnectionRecord{}, err
	}
	out.ConnectedAt, _ = time.Parse(time.RFC3339Nano, tsConnected)
	if tsClosed != "" {
		out.ClosedAt, _ = time.Parse(time.RFC3339Nano, tsClosed)
	}
	return out, nil
}

func (s *Store) ListRecentConnections(ctx context.Context, limit int64) ([]ConnectionRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT conn_id, user_id, endpoint, connected_at, closed_at, close_reason
		 FROM connection_log ORDER BY connected_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ConnectionRecord{}
	for rows.Next() {
		var rec ConnectionRecord
		var tsConnected, tsClosed string
		if err := rows.Scan(&rec.ConnID, &rec.UserID, &rec.Endpoint, &tsConnected, &tsClosed, &rec.CloseReason); err != nil {
			return nil, err
		}
		rec.ConnectedAt, _ = time.Parse(time.RFC3339Nano, tsConnected)
		if tsClosed != "" {
			rec.ClosedAt, _ = time.Parse(time.RFC3339Nano, tsClosed)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) DeliveryTotals(ctx context.Context) ([]DeliveryTotal, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT topic, sent, failed, updated_at FROM topic_deliveries ORDER BY topic ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DeliveryTotal{}
	for rows.Next() {
		var agg DeliveryTotal
		var ts string
		if err := rows.Scan(&agg.Topic, &agg.Sent, &agg.Failed, &ts); err != nil {
			return nil, err
		}
		agg.UpdatedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, agg)
	}
	return out, rows.Err()
}
