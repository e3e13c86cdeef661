package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type LoginLog struct {
	ID        int64
	AuthID    string
	SessionID string
	Campus    string
	LoginTime int64
}

const upsertUserSeen = `
INSERT INTO users (auth_id, first_seen, last_seen)
VALUES (?1, ?2, ?2)
ON CONFLICT (auth_id) DO UPDATE SET last_seen = ?2
`

type UpsertUserSeenParams struct {
	AuthID string
	SeenAt int64
}

func (q *Queries) UpsertUserSeen(ctx context.Context, arg UpsertUserSeenParams) error {
	_, err := q.db.ExecContext(ctx, upsertUserSeen, arg.AuthID, arg.SeenAt)
	return err
}

const insertLoginLog = `
INSERT INTO login_logs (auth_id, session_id, campus, login_time)
VALUES (?1, ?2, ?3, ?4)
`

type InsertLoginLogParams struct {
	AuthID    string
	SessionID string
	Campus    string
	LoginTime int64
}

func (q *Queries) InsertLoginLog(ctx context.Context, arg InsertLoginLogParams) error {
	_, err := q.db.ExecContext(ctx, insertLoginLog,
		arg.AuthID, arg.SessionID, arg.Campus, arg.LoginTime)
	return err
}

const getLoginLogs = `
SELECT id, auth_id, session_id, campus, login_time
FROM login_logs
WHERE auth_id = ?1
ORDER BY login_time DESC
LIMIT ?2
`

func (q *Queries) GetLoginLogs(ctx context.Context, authID string, limit int64) ([]LoginLog, error) {
	rows, err := q.db.QueryContext(ctx, getLoginLogs, authID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []LoginLog
	for rows.Next() {
		var log LoginLog
		if err := rows.Scan(&log.ID, &log.AuthID, &log.SessionID, &log.Campus, &log.LoginTime); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
