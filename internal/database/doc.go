// Package database stores address book cards in SQLite.
//
// Each row holds the raw vCard text of one card, keyed by address book id
// and card URI, together with an ETag derived from the content. The photo
// cache reads cards from here when a contact's photo folder is empty, and
// callers invalidate the cache whenever a card is replaced or removed.
//
// The database uses WAL mode for concurrent readers and creates its schema
// on open.
package database
