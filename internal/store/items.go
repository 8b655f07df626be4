package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/campusfound/campusfound/internal/model"
)

// CreateFoundItem inserts a new report. Status always starts at "found".
func CreateFoundItem(ctx context.Context, db *sql.DB, item *model.FoundItem) (*model.FoundItem, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO found_items (title, description, image_url, found_location, deposit_location,
		                          found_date, found_time, status, reporter_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Title, item.Description, nullable(item.ImageURL),
		item.FoundLocation, item.DepositLocation,
		item.FoundDate, item.FoundTime, model.StatusFound, item.ReporterID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating found item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting found item id: %w", err)
	}

	return GetFoundItem(ctx, db, id)
}

const itemColumns = `i.id, i.title, i.description, i.image_url, i.found_location, i.deposit_location,
	        i.found_date, i.found_time, i.status, i.reporter_id, i.created_at,
	        p.full_name, p.email`

// GetFoundItem returns a single item by ID, with reporter display fields.
func GetFoundItem(ctx context.Context, db *sql.DB, id int64) (*model.FoundItem, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+`
		 FROM found_items i
		 JOIN profiles p ON p.id = i.reporter_id
		 WHERE i.id = ?`, id,
	)

	item := &model.FoundItem{}
	var description, imageURL sql.NullString
	err := row.Scan(&item.ID, &item.Title, &description, &imageURL,
		&item.FoundLocation, &item.DepositLocation, &item.FoundDate, &item.FoundTime,
		&item.Status, &item.ReporterID, &item.CreatedAt,
		&item.ReporterName, &item.ReporterEmail)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting found item: %w", err)
	}
	item.Description = description.String
	item.ImageURL = imageURL.String
	return item, nil
}

// ListFoundItems returns all items joined with their reporter's display
// fields, newest first. A single query so the result is one consistent
// snapshot.
func ListFoundItems(ctx context.Context, db *sql.DB) ([]model.FoundItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+`
		 FROM found_items i
		 JOIN profiles p ON p.id = i.reporter_id
		 ORDER BY i.created_at DESC, i.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing found items: %w", err)
	}
	defer rows.Close()

	return scanFoundItems(rows)
}

// ListFoundItemsByReporter returns the given user's own reports, newest first.
func ListFoundItemsByReporter(ctx context.Context, db *sql.DB, reporterID int64) ([]model.FoundItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+`
		 FROM found_items i
		 JOIN profiles p ON p.id = i.reporter_id
		 WHERE i.reporter_id = ?
		 ORDER BY i.created_at DESC, i.id DESC`, reporterID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer rows.Close()

	return scanFoundItems(rows)
}

func scanFoundItems(rows *sql.Rows) ([]model.FoundItem, error) {
	var items []model.FoundItem
	for rows.Next() {
		var item model.FoundItem
		var description, imageURL sql.NullString
		if err := rows.Scan(&item.ID, &item.Title, &description, &imageURL,
			&item.FoundLocation, &item.DepositLocation, &item.FoundDate, &item.FoundTime,
			&item.Status, &item.ReporterID, &item.CreatedAt,
			&item.ReporterName, &item.ReporterEmail); err != nil {
			return nil, fmt.Errorf("scanning found item: %w", err)
		}
		item.Description = description.String
		item.ImageURL = imageURL.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteFoundItem removes an item. Only the reporter who created the record
// may delete it; anyone else gets ErrForbidden, a missing item ErrNotFound.
func DeleteFoundItem(ctx context.Context, db *sql.DB, id, userID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("deleting found item: %w", err)
	}
	defer tx.Rollback()

	var reporterID int64
	err = tx.QueryRowContext(ctx,
		`SELECT reporter_id FROM found_items WHERE id = ?`, id,
	).Scan(&reporterID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("checking found item owner: %w", err)
	}
	if reporterID != userID {
		return ErrForbidden
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM status_events WHERE item_id = ?`, id,
	); err != nil {
		return fmt.Errorf("deleting status events: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM found_items WHERE id = ?`, id,
	); err != nil {
		return fmt.Errorf("deleting found item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("deleting found item: %w", err)
	}
	return nil
}

// TransitionStatus moves an item to the next lifecycle status and appends an
// audit event, atomically. The transition guard runs against the stored
// status, never a client-submitted one. Only the item's reporter or a staff
// member may transition an item.
func TransitionStatus(ctx context.Context, db *sql.DB, id int64, toStatus string, actor *model.Profile) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	defer tx.Rollback()

	var reporterID int64
	var current string
	err = tx.QueryRowContext(ctx,
		`SELECT reporter_id, status FROM found_items WHERE id = ?`, id,
	).Scan(&reporterID, &current)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading item status: %w", err)
	}

	if reporterID != actor.ID && actor.Role != model.RoleStaff {
		return ErrForbidden
	}
	if !model.CanTransition(current, toStatus) {
		return fmt.Errorf("invalid status transition %s -> %s", current, toStatus)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE found_items SET status = ? WHERE id = ?`, toStatus, id,
	); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO status_events (item_id, from_status, to_status, changed_by)
		 VALUES (?, ?, ?, ?)`, id, current, toStatus, actor.ID,
	); err != nil {
		return fmt.Errorf("recording status event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	return nil
}

// GetStatusHistory returns an item's status transitions, newest first.
func GetStatusHistory(ctx context.Context, db *sql.DB, itemID int64) ([]model.StatusEvent, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT e.id, e.item_id, e.from_status, e.to_status, e.changed_by, e.changed_at,
		        p.full_name
		 FROM status_events e
		 JOIN profiles p ON p.id = e.changed_by
		 WHERE e.item_id = ?
		 ORDER BY e.changed_at DESC, e.id DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("getting status history: %w", err)
	}
	defer rows.Close()

	var events []model.StatusEvent
	for rows.Next() {
		var e model.StatusEvent
		if err := rows.Scan(&e.ID, &e.ItemID, &e.FromStatus, &e.ToStatus,
			&e.ChangedBy, &e.ChangedAt, &e.ChangedByName); err != nil {
			return nil, fmt.Errorf("scanning status event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
