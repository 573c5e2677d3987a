/*
Package photocache derives and caches resized copies of contact photos.

Every contact gets one folder in a blob store, named by the md5 of its
address book id and card URI. The folder moves through three states:

  - uninitialized: empty
  - negative: holds only the "nophoto" marker
  - populated: holds photo.<ext> and any number of photo.<bucket>.<ext>

The first Get on an empty folder extracts the photo from the contact record
and stores either the original or the marker. The record is never read
again until Delete removes the folder.

Requested sizes are rounded up to a power of two (see Bucket), so a contact
has at most one variant per power of two. Variants are produced on the first
request for their bucket and stored next to the original.

No locks guard the folder. Initialization and derivation are deterministic
functions of the record and the original bytes, so two callers racing on
the same folder write equivalent files and the loser's ErrExists is ignored.
Concurrent work within one process is collapsed with singleflight; that only
avoids duplicate decoding and is not needed for correctness.
*/
package photocache
