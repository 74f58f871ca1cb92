package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// TodoStore persists per-user todo items.
type TodoStore struct {
	db *gorm.DB
}

// Create inserts a todo and returns its id.
func (t *TodoStore) Create(ctx context.Context, todo *TodoItem) (int64, error) {
	if err := t.db.WithContext(ctx).Create(todo).Error; err != nil {
		return 0, fmt.Errorf("create todo: %w", err)
	}
	return todo.ID, nil
}

// List returns the user's todos, newest first.
func (t *TodoStore) List(ctx context.Context, userID string) ([]TodoItem, error) {
	var todos []TodoItem
	err := t.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc, id desc").
		Find(&todos).Error
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// Update patches the given fields of one todo. Returns false when no row
// matched.
func (t *TodoStore) Update(ctx context.Context, userID string, id int64, fields map[string]any) (bool, error) {
	patch := map[string]any{}
	for k, v := range fields {
		switch k {
		case "text", "completed", "due_date", "priority", "tag":
			patch[k] = v
		}
	}
	if len(patch) == 0 {
		return false, nil
	}
	res := t.db.WithContext(ctx).Model(&TodoItem{}).
		Where("user_id = ? AND id = ?", userID, id).
		Updates(patch)
	if res.Error != nil {
		return false, fmt.Errorf("update todo: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Delete removes one todo. Returns false when no row matched.
func (t *TodoStore) Delete(ctx context.Context, userID string, id int64) (bool, error) {
	res := t.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&TodoItem{})
	if res.Error != nil {
		return false, fmt.Errorf("delete todo: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ClearAll wipes every todo of the user, returning the affected count.
func (t *TodoStore) ClearAll(ctx context.Context, userID string) (int64, error) {
	res := t.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&TodoItem{})
	if res.Error != nil {
		return 0, fmt.Errorf("clear todos: %w", res.Error)
	}
	return res.RowsAffected, nil
}
