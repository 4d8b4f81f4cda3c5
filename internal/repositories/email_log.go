package repositories

import (
	"context"
	"fmt"
)

// reassignEmailLogs moves every delivery record of one subscriber to another and returns how many moved.
func reassignEmailLogs(ctx context.Context, db DBTX, fromID, toID string) (int, error) {
	res, err := db.ExecContext(ctx, `UPDATE email_logs SET subscriber_id = ? WHERE subscriber_id = ?`, toID, fromID)
	if err != nil {
		return 0, fmt.Errorf("failed to re-point email logs of %s: %w", fromID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count re-pointed email logs: %w", err)
	}
	return int(n), nil
}
