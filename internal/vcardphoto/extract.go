package vcardphoto

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"contact-photos/internal/logging"

	"github.com/emersion/go-vcard"
	"github.com/vincent-petithory/dataurl"
)

// Content types accepted as photo types. Anything else becomes OctetStream.
const (
	TypePNG     = "image/png"
	TypeJPEG    = "image/jpeg"
	TypeGIF     = "image/gif"
	OctetStream = "application/octet-stream"
)

var allowedContentTypes = map[string]bool{
	TypePNG:  true,
	TypeJPEG: true,
	TypeGIF:  true,
}

// Photo is the raw photo payload of a contact.
type Photo struct {
	ContentType string
	Data        []byte
}

// Record is a contact record whose vCard is parsed on demand.
type Record interface {
	Card() (vcard.Card, error)
}

type parsedRecord struct{ card vcard.Card }

func (r parsedRecord) Card() (vcard.Card, error) { return r.card, nil }

// Parsed wraps an already decoded card.
func Parsed(card vcard.Card) Record {
	return parsedRecord{card: card}
}

type rawRecord []byte

func (r rawRecord) Card() (vcard.Card, error) {
	return ParseCard(r)
}

// Raw wraps vCard text; it is decoded only when the photo is requested.
func Raw(data []byte) Record {
	return rawRecord(data)
}

// ParseCard decodes the first card in data.
func ParseCard(data []byte) (vcard.Card, error) {
	card, err := vcard.NewDecoder(bytes.NewReader(data)).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode vcard: %w", err)
	}
	return card, nil
}

// Extractor pulls photos out of contact records.
type Extractor struct {
	// OnFailure is called when a record cannot be read. It defaults to
	// logging the error with its context fields.
	OnFailure func(err error, fields logging.Fields)
}

// NewExtractor returns an Extractor that logs failures.
func NewExtractor() *Extractor {
	return &Extractor{OnFailure: LogFailure}
}

// LogFailure is the default failure report: an error log line with fields.
func LogFailure(err error, fields logging.Fields) {
	f := logging.Fields{"error": err.Error()}
	for k, v := range fields {
		f[k] = v
	}
	logging.ErrorFields("vcard photo parsing failed", f)
}

// Extract returns the photo stored in record. The boolean is false when the
// record has no usable photo, including when it cannot be parsed; fields
// identify the record in failure reports.
func (e *Extractor) Extract(record Record, fields logging.Fields) (Photo, bool) {
	photo, ok, err := extract(record)
	if err != nil {
		report := e.OnFailure
		if report == nil {
			report = LogFailure
		}
		report(err, fields)
		return Photo{}, false
	}
	return photo, ok
}

func extract(record Record) (Photo, bool, error) {
	card, err := record.Card()
	if err != nil {
		return Photo{}, false, err
	}

	field := card.Get(vcard.FieldPhoto)
	if field == nil {
		return Photo{}, false, nil
	}

	var contentType string
	var data []byte
	if isURIValue(card, field) {
		var ok bool
		contentType, data, ok, err = decodeURI(field.Value)
		if err != nil || !ok {
			return Photo{}, false, err
		}
	} else {
		contentType = binaryType(field)
		data, err = decodeBinary(field)
		if err != nil {
			return Photo{}, false, err
		}
	}

	if len(data) == 0 {
		logging.Debug("vcard PHOTO property has an empty payload")
		return Photo{}, false, nil
	}

	if !allowedContentTypes[contentType] {
		contentType = OctetStream
	}
	return Photo{ContentType: contentType, Data: data}, true, nil
}

// param looks a parameter up case-insensitively.
func param(field *vcard.Field, name string) string {
	if v := field.Params.Get(name); v != "" {
		return v
	}
	for k, values := range field.Params {
		if strings.EqualFold(k, name) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// isURIValue reports whether the PHOTO value is a URI rather than inline
// binary. vCard 4 photos are URIs by default; earlier versions carry binary
// unless VALUE=uri is given or the value is plainly a URI.
func isURIValue(card vcard.Card, field *vcard.Field) bool {
	if strings.EqualFold(param(field, vcard.ParamValue), "uri") {
		return true
	}
	if param(field, "ENCODING") != "" {
		return false
	}
	if strings.HasPrefix(card.Value(vcard.FieldVersion), "4") {
		return true
	}
	u, err := url.Parse(strings.TrimSpace(field.Value))
	return err == nil && u.Scheme != ""
}

// binaryType derives the content type of an inline photo from TYPE, then
// MEDIATYPE. Bare subtypes such as "JPEG" become "image/jpeg".
func binaryType(field *vcard.Field) string {
	t := param(field, vcard.ParamType)
	if t == "" {
		t = param(field, "MEDIATYPE")
	}
	if t == "" {
		return ""
	}
	t = strings.ToLower(t)
	if strings.HasPrefix(t, "image/") {
		return t
	}
	return "image/" + t
}

func decodeBinary(field *vcard.Field) ([]byte, error) {
	encoding := strings.ToLower(param(field, "ENCODING"))
	switch encoding {
	case "b", "base64":
		clean := strings.Map(func(r rune) rune {
			switch r {
			case ' ', '\t', '\r', '\n':
				return -1
			}
			return r
		}, field.Value)
		data, err := base64.StdEncoding.DecodeString(clean)
		if err != nil {
			data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(clean, "="))
		}
		if err != nil {
			return nil, fmt.Errorf("invalid base64 photo: %w", err)
		}
		return data, nil
	case "":
		return []byte(field.Value), nil
	default:
		return nil, fmt.Errorf("unsupported photo encoding %q", encoding)
	}
}

// decodeURI handles PHOTO;VALUE=uri:data:image/jpeg;base64,... Only data URIs
// are read; ok is false for every other scheme and no fetch is attempted.
func decodeURI(raw string) (contentType string, data []byte, ok bool, err error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil {
		return "", nil, false, fmt.Errorf("invalid photo uri: %w", err)
	}
	if !strings.EqualFold(u.Scheme, "data") {
		logging.Debug("vcard PHOTO uri with scheme %q ignored", u.Scheme)
		return "", nil, false, nil
	}

	// The media type is only trusted when the metadata is exactly
	// "<type>;<encoding>".
	meta := raw[len(u.Scheme)+1:]
	if i := strings.IndexByte(meta, ','); i >= 0 {
		meta = meta[:i]
	}
	if strings.Count(meta, ";") == 1 {
		contentType = strings.ToLower(meta[:strings.IndexByte(meta, ';')])
	}

	decoded, err := dataurl.DecodeString(raw)
	if err != nil {
		return "", nil, false, fmt.Errorf("invalid data uri: %w", err)
	}
	return contentType, decoded.Data, true, nil
}
