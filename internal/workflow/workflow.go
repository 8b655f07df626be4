// Package workflow implements the validate-then-persist sequence for
// creating and deleting found-item reports.
package workflow

import (
	"context"
	"database/sql"
	"time"

	"github.com/campusfound/campusfound/internal/blobstore"
	"github.com/campusfound/campusfound/internal/imaging"
	"github.com/campusfound/campusfound/internal/model"
	"github.com/campusfound/campusfound/internal/store"
)

// MaxImageBytes is the inclusive upper bound for an attached photo (5 MiB).
const MaxImageBytes = 5 << 20

// Draft is a report as submitted by the user, before validation.
type Draft struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	FoundLocation   string `json:"found_location"`
	DepositLocation string `json:"deposit_location"`
	FoundDate       string `json:"found_date"`
	FoundTime       string `json:"found_time"`

	// Image holds the raw attached photo bytes, nil when no photo was
	// attached.
	Image []byte `json:"-"`
}

// Workflow runs report submissions and deletions against the record store
// and blob store.
type Workflow struct {
	DB    *sql.DB
	Blobs *blobstore.Store
}

// Validate checks the draft's required fields and returns the first violated
// constraint. The description and image are optional.
func Validate(draft *Draft) error {
	required := []struct {
		field, value string
	}{
		{"title", draft.Title},
		{"found_location", draft.FoundLocation},
		{"deposit_location", draft.DepositLocation},
		{"found_date", draft.FoundDate},
		{"found_time", draft.FoundTime},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.field, Reason: "required"}
		}
	}

	if _, err := time.Parse("2006-01-02", draft.FoundDate); err != nil {
		return &ValidationError{Field: "found_date", Reason: "must be a date in YYYY-MM-DD form"}
	}
	if _, err := time.Parse("15:04", draft.FoundTime); err != nil {
		return &ValidationError{Field: "found_time", Reason: "must be a time in HH:MM form"}
	}

	return nil
}

// Submit validates the draft, uploads the attached photo (if any) and
// creates exactly one found-item record owned by the user. The image size is
// checked before any upload; an upload failure aborts the submission so no
// record is created without its image. If the insert fails after a
// successful upload the blob is orphaned, which is accepted for this domain.
func (wf *Workflow) Submit(ctx context.Context, draft *Draft, user *model.Profile) (*model.FoundItem, error) {
	if user == nil {
		return nil, ErrAuthRequired
	}
	if err := Validate(draft); err != nil {
		return nil, err
	}

	var imageURL string
	if draft.Image != nil {
		if int64(len(draft.Image)) > MaxImageBytes {
			return nil, &ImageTooLargeError{Size: int64(len(draft.Image))}
		}

		processed, err := imaging.Process(draft.Image)
		if err != nil {
			return nil, &UploadError{Err: err}
		}

		objectPath := wf.Blobs.ObjectPath(user.ID, ".jpg")
		if err := wf.Blobs.Upload(objectPath, processed); err != nil {
			return nil, &UploadError{Err: err}
		}
		imageURL = wf.Blobs.PublicURL(objectPath)
	}

	item, err := store.CreateFoundItem(ctx, wf.DB, &model.FoundItem{
		Title:           draft.Title,
		Description:     draft.Description,
		ImageURL:        imageURL,
		FoundLocation:   draft.FoundLocation,
		DepositLocation: draft.DepositLocation,
		FoundDate:       draft.FoundDate,
		FoundTime:       draft.FoundTime,
		ReporterID:      user.ID,
	})
	if err != nil {
		return nil, &StoreError{Err: err}
	}
	return item, nil
}

// Delete removes a report. Ownership is enforced by the record store, which
// surfaces store.ErrForbidden or store.ErrNotFound.
func (wf *Workflow) Delete(ctx context.Context, itemID int64, user *model.Profile) error {
	if user == nil {
		return ErrAuthRequired
	}
	return store.DeleteFoundItem(ctx, wf.DB, itemID, user.ID)
}
