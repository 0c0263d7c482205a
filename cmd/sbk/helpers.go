package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/franz/songbook/internal/blob"
	"github.com/franz/songbook/internal/library"
	"github.com/franz/songbook/internal/store"
	"github.com/spf13/viper"
	"golang.org/x/text/unicode/norm"
)

// openLibrary opens the database and blob directory from configuration
// and primes the repository caches. The returned cleanup closes the
// store.
func openLibrary(ctx context.Context) (*store.Store, *library.Library, *blob.Manager, func(), error) {
	st, err := store.Open(viper.GetString("db"))
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	blobs, err := blob.New(viper.GetString("clips-dir"))
	if err != nil {
		st.Close()
		return nil, nil, nil, nil, err
	}

	lib, err := library.New(ctx, st, blobs)
	if err != nil {
		st.Close()
		return nil, nil, nil, nil, err
	}

	return st, lib, blobs, func() { st.Close() }, nil
}

// orEmpty renders a nullable text field
func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// normalizeTitle folds a title for case- and accent-insensitive matching
func normalizeTitle(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// matchesTitle reports whether a nullable title contains the query after
// normalization
func matchesTitle(title *string, query string) bool {
	if query == "" {
		return true
	}
	if title == nil {
		return false
	}
	return strings.Contains(normalizeTitle(*title), normalizeTitle(query))
}
