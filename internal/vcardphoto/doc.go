// Package vcardphoto extracts the embedded photo from a vCard contact
// record.
//
// A PHOTO property is read in one of two encodings:
//   - inline binary (ENCODING=b or BASE64), typed by the TYPE or MEDIATYPE
//     parameter
//   - a data: URI, typed by the media type in the URI
//
// URIs with any other scheme are never fetched; such a contact simply has
// no photo. Extraction is fail-soft: a record that cannot be parsed or
// decoded is reported through the Extractor's failure hook and treated as
// having no photo.
package vcardphoto
