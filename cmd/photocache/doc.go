// Command photocache inspects and purges the contact photo cache on disk.
//
// Usage:
//
//	photocache <command> [arguments]
//
// Commands:
//
//	purge <addressbook-id> <card-uri>
//	        Remove the cached photos of one card. The next request
//	        re-reads the photo from the stored vCard.
//
//	purge-all [-y]
//	        Remove every cached photo folder. Asks for confirmation
//	        unless -y is given; without -y it refuses to run when
//	        stdin is not a terminal.
//
//	stats   Print folder, original, thumbnail and negative-marker counts.
//
// Environment:
//
//	CACHE_DIR - Cache root; photos live in CACHE_DIR/photos (default: /cache)
package main
