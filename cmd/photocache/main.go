package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"contact-photos/internal/blobstore"
	"contact-photos/internal/filesystem"
	"contact-photos/internal/imagecodec"
	"contact-photos/internal/photocache"

	"golang.org/x/term"
)

const defaultCacheDir = "/cache"

// errAborted is returned when purge-all is not confirmed.
var errAborted = errors.New("aborted")

type cli struct {
	store       *blobstore.Store
	stdin       io.Reader
	stdout      io.Writer
	interactive bool
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	cacheDir := os.Getenv("CACHE_DIR")
	if cacheDir == "" {
		cacheDir = defaultCacheDir
	}
	store, err := blobstore.New(filepath.Join(cacheDir, "photos"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to open photo cache: %v\n", err)
		fmt.Fprintf(os.Stderr, "Make sure CACHE_DIR is set correctly (current: %s)\n", cacheDir)
		os.Exit(1)
	}

	c := &cli{
		store:       store,
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		interactive: term.IsTerminal(int(os.Stdin.Fd())),
	}
	if err := c.run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Contact Photo Cache Maintenance")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: photocache <command> [arguments]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  purge <addressbook-id> <card-uri>  - Remove one card's cached photos")
	fmt.Fprintln(w, "  purge-all [-y]                     - Remove every cached photo")
	fmt.Fprintln(w, "  stats                              - Show cache statistics")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  CACHE_DIR - Cache root directory (default: %s)\n", defaultCacheDir)
}

func (c *cli) run(args []string) error {
	switch args[0] {
	case "purge":
		if len(args) != 3 {
			return fmt.Errorf("usage: photocache purge <addressbook-id> <card-uri>")
		}
		return c.purge(args[1], args[2])
	case "purge-all":
		assumeYes := len(args) > 1 && (args[1] == "-y" || args[1] == "--yes")
		return c.purgeAll(assumeYes)
	case "stats":
		return c.stats()
	case "help", "-h", "--help":
		printUsage(c.stdout)
		return nil
	default:
		printUsage(c.stdout)
		return fmt.Errorf("unknown command %q", sanitizeCommand(args[0]))
	}
}

// sanitizeCommand keeps only [a-zA-Z0-9_-] so arbitrary input is not echoed.
func sanitizeCommand(cmd string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, cmd)
}

func (c *cli) purge(book, uri string) error {
	id, err := strconv.ParseInt(book, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid address book id %q", book)
	}

	key := photocache.NewContactKey(id, uri)
	cache := photocache.New(photocache.DiskStore(c.store), imagecodec.NewImaging(), nil)
	if err := cache.Delete(key); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Purged cached photos for %s (folder %s)\n", key, key.Folder())
	return nil
}

func (c *cli) purgeAll(assumeYes bool) error {
	folders, err := c.store.Folders()
	if err != nil {
		return err
	}
	if len(folders) == 0 {
		fmt.Fprintln(c.stdout, "Photo cache is already empty.")
		return nil
	}

	if !assumeYes {
		if !c.interactive {
			return fmt.Errorf("refusing to purge %d folders without confirmation; pass -y", len(folders))
		}
		fmt.Fprintf(c.stdout, "Remove %d cached photo folders from %s? [y/N]: ", len(folders), c.store.Root())
		answer, _ := bufio.NewReader(c.stdin).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
		default:
			return errAborted
		}
	}

	removed := 0
	for _, name := range folders {
		folder, err := c.store.Folder(name)
		if errors.Is(err, blobstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		if err := folder.Delete(); err != nil {
			return fmt.Errorf("failed to purge %s: %w", name, err)
		}
		removed++
	}
	fmt.Fprintf(c.stdout, "Purged %d cached photo folders.\n", removed)
	return nil
}

// cacheStats summarizes the photo cache.
type cacheStats struct {
	Folders   int
	Originals int
	Variants  int
	NoPhoto   int
	Empty     int
	Bytes     int64
}

func (c *cli) collectStats() (cacheStats, error) {
	var s cacheStats

	folders, err := c.store.Folders()
	if err != nil {
		return s, err
	}
	retry := filesystem.DefaultRetryConfig()

	for _, name := range folders {
		folder, err := c.store.Folder(name)
		if errors.Is(err, blobstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return s, err
		}
		files, err := folder.List()
		if err != nil {
			return s, err
		}

		s.Folders++
		if len(files) == 0 {
			s.Empty++
		}
		for _, file := range files {
			switch strings.Count(file, ".") {
			case 0:
				s.NoPhoto++
			case 1:
				s.Originals++
			default:
				s.Variants++
			}
			if info, err := filesystem.StatWithRetry(filepath.Join(c.store.Root(), name, file), retry); err == nil {
				s.Bytes += info.Size()
			}
		}
	}
	return s, nil
}

func (c *cli) stats() error {
	s, err := c.collectStats()
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Photo cache: %s\n", c.store.Root())
	fmt.Fprintf(c.stdout, "  Contacts:    %d\n", s.Folders)
	fmt.Fprintf(c.stdout, "  Originals:   %d\n", s.Originals)
	fmt.Fprintf(c.stdout, "  Thumbnails:  %d\n", s.Variants)
	fmt.Fprintf(c.stdout, "  No photo:    %d\n", s.NoPhoto)
	fmt.Fprintf(c.stdout, "  Empty:       %d\n", s.Empty)
	fmt.Fprintf(c.stdout, "  Size:        %d bytes\n", s.Bytes)
	return nil
}
