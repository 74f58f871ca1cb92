package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ChatStore persists the append-only conversation log.
type ChatStore struct {
	db *gorm.DB
}

// Save appends one message.
func (c *ChatStore) Save(ctx context.Context, msg *ChatMessage) error {
	if err := c.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

// History returns the messages of one (user, thread), oldest first. A limit
// of 0 returns everything.
func (c *ChatStore) History(ctx context.Context, userID, threadID string, limit int) ([]ChatMessage, error) {
	var msgs []ChatMessage
	q := c.db.WithContext(ctx).
		Where("user_id = ? AND thread_id = ?", userID, threadID).
		Order("created_at asc, id asc")
	if limit > 0 {
		// take the newest N, then re-sort ascending
		var newest []ChatMessage
		err := c.db.WithContext(ctx).
			Where("user_id = ? AND thread_id = ?", userID, threadID).
			Order("created_at desc, id desc").
			Limit(limit).
			Find(&newest).Error
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		for i := len(newest) - 1; i >= 0; i-- {
			msgs = append(msgs, newest[i])
		}
		return msgs, nil
	}
	if err := q.Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return msgs, nil
}

// threadRow is the raw aggregate row. sqlite hands MAX(created_at) back as
// text, so the timestamp is scanned as a string and parsed afterwards.
type threadRow struct {
	ThreadID     string
	LastActivity string
	MessageCount int64
}

// Threads lists the user's conversation threads with last-activity time and
// message count, most recent first.
func (c *ChatStore) Threads(ctx context.Context, userID string) ([]ThreadSummary, error) {
	var rows []threadRow
	err := c.db.WithContext(ctx).Model(&ChatMessage{}).
		Select("thread_id, MAX(created_at) as last_activity, COUNT(*) as message_count").
		Where("user_id = ?", userID).
		Group("thread_id").
		Order("last_activity desc").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	threads := make([]ThreadSummary, 0, len(rows))
	for _, row := range rows {
		threads = append(threads, ThreadSummary{
			ThreadID:     row.ThreadID,
			LastActivity: parseStoredTime(row.LastActivity),
			MessageCount: row.MessageCount,
		})
	}
	return threads, nil
}

// storedTimeLayouts cover the timestamp text forms the sqlite driver writes.
var storedTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	time.RFC3339,
}

// parseStoredTime decodes a raw sqlite timestamp string, zero time when no
// layout matches.
func parseStoredTime(s string) time.Time {
	for _, layout := range storedTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// DeleteThread removes every message of the (user, thread) pair and cascades
// to schedule events whose source tag equals the thread id. Rows of other
// users and threads are untouched. This is the system's only cross-entity
// cascade and runs in one transaction.
func (c *ChatStore) DeleteThread(ctx context.Context, userID, threadID string) (int64, error) {
	var removed int64
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND thread_id = ?", userID, threadID).Delete(&ChatMessage{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return tx.Where("user_id = ? AND source = ?", userID, threadID).Delete(&ScheduleEvent{}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("delete thread: %w", err)
	}
	return removed, nil
}
