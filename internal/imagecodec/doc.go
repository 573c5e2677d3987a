// Package imagecodec decodes, measures, resizes and re-encodes contact
// photos.
//
// Two implementations of [Codec] are provided:
//   - [NewImaging]: pure Go, built on github.com/disintegration/imaging
//   - [NewVips]: libvips through github.com/davidbyttow/govips, which must be
//     started once with [InitVips]
//
// Only PNG, JPEG and GIF are accepted. Encoding always uses the format the
// image was decoded from, so a resized variant has the same type as its
// original.
package imagecodec
