package database

import (
	"context"
	"crypto/md5"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"contact-photos/internal/vcardphoto"

	"github.com/emersion/go-vcard"
)

// ErrCardNotFound is returned when no card exists for the address book and URI.
var ErrCardNotFound = errors.New("card not found")

// AddressObject is one stored card.
type AddressObject struct {
	AddressBookID int64
	URI           string
	Data          []byte
	ETag          string
	UpdatedAt     time.Time
}

// Card decodes the stored vCard text.
func (o *AddressObject) Card() (vcard.Card, error) {
	return vcardphoto.ParseCard(o.Data)
}

// ComputeETag returns the quoted md5 of card data.
func ComputeETag(data []byte) string {
	return fmt.Sprintf(`"%x"`, md5.Sum(data))
}

// PutCard creates or replaces a card and returns the stored object. created
// is true when no previous card existed.
func (d *Database) PutCard(ctx context.Context, addressBookID int64, uri string, data []byte) (obj *AddressObject, created bool, err error) {
	start := time.Now()
	defer func() { recordQuery("put_card", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	obj = &AddressObject{
		AddressBookID: addressBookID,
		URI:           uri,
		Data:          data,
		ETag:          ComputeETag(data),
		UpdatedAt:     time.Now().Truncate(time.Second),
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM cards WHERE addressbook_id = ? AND uri = ?`,
		addressBookID, uri,
	).Scan(&exists)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up card: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO cards (addressbook_id, uri, data, etag, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(addressbook_id, uri) DO UPDATE SET
		data = excluded.data,
		etag = excluded.etag,
		updated_at = excluded.updated_at
	`, obj.AddressBookID, obj.URI, obj.Data, obj.ETag, obj.UpdatedAt.Unix())
	if err != nil {
		return nil, false, fmt.Errorf("failed to store card: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit card: %w", err)
	}
	return obj, exists == 0, nil
}

// GetCard returns a stored card or ErrCardNotFound.
func (d *Database) GetCard(ctx context.Context, addressBookID int64, uri string) (obj *AddressObject, err error) {
	start := time.Now()
	defer func() { recordQuery("get_card", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var updated int64
	obj = &AddressObject{AddressBookID: addressBookID, URI: uri}
	err = d.db.QueryRowContext(ctx,
		`SELECT data, etag, updated_at FROM cards WHERE addressbook_id = ? AND uri = ?`,
		addressBookID, uri,
	).Scan(&obj.Data, &obj.ETag, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	obj.UpdatedAt = time.Unix(updated, 0)
	return obj, nil
}

// DeleteCard removes a card. It returns ErrCardNotFound if nothing was deleted.
func (d *Database) DeleteCard(ctx context.Context, addressBookID int64, uri string) (err error) {
	start := time.Now()
	defer func() { recordQuery("delete_card", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := d.db.ExecContext(ctx,
		`DELETE FROM cards WHERE addressbook_id = ? AND uri = ?`,
		addressBookID, uri,
	)
	if err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count deleted cards: %w", err)
	}
	if n == 0 {
		return ErrCardNotFound
	}
	return nil
}

// ListCards returns the URIs in an address book ordered by URI.
func (d *Database) ListCards(ctx context.Context, addressBookID int64) (uris []string, err error) {
	start := time.Now()
	defer func() { recordQuery("list_cards", start, err) }()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx,
		`SELECT uri FROM cards WHERE addressbook_id = ? ORDER BY uri`,
		addressBookID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	uris = []string{}
	for rows.Next() {
		var uri string
		if err = rows.Scan(&uri); err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		uris = append(uris, uri)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}
	return uris, nil
}
