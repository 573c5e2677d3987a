package handlers

import (
	"context"
	"net/http"
	"strconv"

	"contact-photos/internal/database"
	"contact-photos/internal/photocache"
	"contact-photos/internal/vcardphoto"

	"github.com/gorilla/mux"
)

// CardStore is the subset of database.Database the handlers use.
type CardStore interface {
	PutCard(ctx context.Context, addressBookID int64, uri string, data []byte) (*database.AddressObject, bool, error)
	GetCard(ctx context.Context, addressBookID int64, uri string) (*database.AddressObject, error)
	DeleteCard(ctx context.Context, addressBookID int64, uri string) error
	ListCards(ctx context.Context, addressBookID int64) ([]string, error)
	Ping(ctx context.Context) error
}

// PhotoCache is the subset of photocache.Cache the handlers use.
type PhotoCache interface {
	Get(key photocache.ContactKey, size int, record vcardphoto.Record) (*photocache.Blob, error)
	Delete(key photocache.ContactKey) error
}

type Handlers struct {
	db           CardStore
	cache        PhotoCache
	maxPhotoSize int
}

// New returns handlers serving photos no larger than maxPhotoSize.
func New(db CardStore, cache PhotoCache, maxPhotoSize int) *Handlers {
	return &Handlers{
		db:           db,
		cache:        cache,
		maxPhotoSize: maxPhotoSize,
	}
}

// bookVar reads the address book id path variable.
func bookVar(r *http.Request) (int64, bool) {
	book, err := strconv.ParseInt(mux.Vars(r)["book"], 10, 64)
	if err != nil {
		return 0, false
	}
	return book, true
}

// cardVars reads the address book id and card URI path variables.
func cardVars(r *http.Request) (int64, string, bool) {
	book, ok := bookVar(r)
	if !ok {
		return 0, "", false
	}
	card := mux.Vars(r)["card"]
	if card == "" {
		return 0, "", false
	}
	return book, card, true
}
