package photocache

import (
	"crypto/md5"
	"fmt"

	"contact-photos/internal/logging"
)

// ContactKey identifies one contact's cache folder.
type ContactKey struct {
	AddressBookID int64
	CardURI       string
}

// NewContactKey returns the key for a card in an address book.
func NewContactKey(addressBookID int64, cardURI string) ContactKey {
	return ContactKey{AddressBookID: addressBookID, CardURI: cardURI}
}

// Folder returns the folder name: the hex md5 of "<addressBookID> <cardURI>".
func (k ContactKey) Folder() string {
	sum := md5.Sum([]byte(fmt.Sprintf("%d %s", k.AddressBookID, k.CardURI)))
	return fmt.Sprintf("%x", sum)
}

func (k ContactKey) String() string {
	return fmt.Sprintf("%d/%s", k.AddressBookID, k.CardURI)
}

func (k ContactKey) fields() logging.Fields {
	return logging.Fields{
		"addressbook": k.AddressBookID,
		"card":        k.CardURI,
		"folder":      k.Folder(),
	}
}
