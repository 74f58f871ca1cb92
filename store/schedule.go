package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// EventStore persists schedule events scoped to a user.
type EventStore struct {
	db *gorm.DB
}

// Add inserts an event unless one with the same (user, title, start) already
// exists; a duplicate is silently rejected with added=false. Priority and
// category are normalized before the write.
func (e *EventStore) Add(ctx context.Context, ev *ScheduleEvent) (int64, bool, error) {
	ev.Priority = NormalizePriority(ev.Priority)
	ev.Category = NormalizeCategory(ev.Category)
	if ev.Source == "" {
		ev.Source = SourceManual
	}

	var count int64
	err := e.db.WithContext(ctx).Model(&ScheduleEvent{}).
		Where("user_id = ? AND title = ? AND start_time = ?", ev.UserID, ev.Title, ev.StartTime).
		Count(&count).Error
	if err != nil {
		return 0, false, fmt.Errorf("check duplicate: %w", err)
	}
	if count > 0 {
		return 0, false, nil
	}

	if err := e.db.WithContext(ctx).Create(ev).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("insert event: %w", err)
	}
	return ev.ID, true, nil
}

// Update patches the given fields of a user's event. Priority/category
// values present in the patch are normalized. Returns false when no row
// matched.
func (e *EventStore) Update(ctx context.Context, userID string, id int64, fields map[string]any) (bool, error) {
	if len(fields) == 0 {
		return false, nil
	}
	patch := map[string]any{}
	for k, v := range fields {
		switch k {
		case "title", "start_time", "end_time", "description", "source":
			patch[k] = v
		case "priority":
			patch[k] = NormalizePriority(fmt.Sprintf("%v", v))
		case "category":
			patch[k] = NormalizeCategory(fmt.Sprintf("%v", v))
		}
	}
	if len(patch) == 0 {
		return false, nil
	}
	res := e.db.WithContext(ctx).Model(&ScheduleEvent{}).
		Where("user_id = ? AND id = ?", userID, id).
		Updates(patch)
	if res.Error != nil {
		return false, fmt.Errorf("update event: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete removes one event by id. Returns false when no row matched.
func (e *EventStore) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	res := e.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&ScheduleEvent{})
	if res.Error != nil {
		return false, fmt.Errorf("delete event: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// DeleteByDate removes every event of the user starting on the given
// calendar date (YYYY-MM-DD). Returns the affected row count.
func (e *EventStore) DeleteByDate(ctx context.Context, userID, date string) (int64, error) {
	res := e.db.WithContext(ctx).
		Where("user_id = ? AND start_time LIKE ?", userID, date+"%").
		Delete(&ScheduleEvent{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete events by date: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteBySource removes every event of the user carrying the given source
// tag. Used by the thread-delete cascade.
func (e *EventStore) DeleteBySource(ctx context.Context, userID, source string) (int64, error) {
	res := e.db.WithContext(ctx).
		Where("user_id = ? AND source = ?", userID, source).
		Delete(&ScheduleEvent{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete events by source: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ClearAll wipes the user's entire calendar, returning the affected count.
func (e *EventStore) ClearAll(ctx context.Context, userID string) (int64, error) {
	res := e.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&ScheduleEvent{})
	if res.Error != nil {
		return 0, fmt.Errorf("clear events: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Get returns one event by id.
func (e *EventStore) Get(ctx context.Context, userID string, id int64) (*ScheduleEvent, error) {
	var ev ScheduleEvent
	err := e.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&ev).Error
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// Upcoming lists events starting at or after now, soonest first.
func (e *EventStore) Upcoming(ctx context.Context, userID string, limit int) ([]ScheduleEvent, error) {
	now := time.Now().Format("2006-01-02T15:04:05")
	var events []ScheduleEvent
	q := e.db.WithContext(ctx).
		Where("user_id = ? AND start_time >= ?", userID, now).
		Order("start_time asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list upcoming events: %w", err)
	}
	return events, nil
}

// ByRange lists events whose start date falls inside [startDate, endDate]
// (inclusive, YYYY-MM-DD). ISO strings order lexically so a string compare
// suffices.
func (e *EventStore) ByRange(ctx context.Context, userID, startDate, endDate string) ([]ScheduleEvent, error) {
	var events []ScheduleEvent
	q := e.db.WithContext(ctx).Where("user_id = ?", userID)
	if startDate != "" {
		q = q.Where("start_time >= ?", startDate)
	}
	if endDate != "" {
		q = q.Where("start_time < ?", endDate+"T24")
	}
	if err := q.Order("start_time asc").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list events by range: %w", err)
	}
	return events, nil
}

// ByDate lists events starting on one calendar date.
func (e *EventStore) ByDate(ctx context.Context, userID, date string) ([]ScheduleEvent, error) {
	var events []ScheduleEvent
	err := e.db.WithContext(ctx).
		Where("user_id = ? AND start_time LIKE ?", userID, date+"%").
		Order("start_time asc").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("list events by date: %w", err)
	}
	return events, nil
}

// Search matches events by free text over title/description/category, or by
// date prefix when the query looks like a date.
func (e *EventStore) Search(ctx context.Context, userID, query string) ([]ScheduleEvent, error) {
	query = strings.TrimSpace(query)
	var events []ScheduleEvent
	q := e.db.WithContext(ctx).Where("user_id = ?", userID)
	if looksLikeDate(query) {
		q = q.Where("start_time LIKE ?", query+"%")
	} else {
		like := "%" + query + "%"
		q = q.Where("title LIKE ? OR description LIKE ? OR category LIKE ?", like, like, like)
	}
	if err := q.Order("start_time asc").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	return events, nil
}

// looksLikeDate reports whether s starts with a YYYY-MM-DD shape.
func looksLikeDate(s string) bool {
	if len(s) < 10 {
		return false
	}
	_, err := time.Parse("2006-01-02", s[:10])
	return err == nil
}
