// Package blobstore stores named blobs in flat folders on local disk.
//
// A Store owns a root directory; each folder is one subdirectory named by
// an opaque identifier and holds plain files. Files are written once with
// [Folder.WriteNewFile], which stages the content in a temporary file and
// links it into place so concurrent readers never observe a partial file.
// Errors are reported with the sentinels [ErrNotFound], [ErrExists] and
// [ErrPermission] so callers can branch with errors.Is.
package blobstore
