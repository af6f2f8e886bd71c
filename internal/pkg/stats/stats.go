// Package stats holds the run counters incremented by the fetch workers and
// read by the terminal summary.
package stats

import (
	"errors"
	"sync"
)

var ErrStatsAlreadyInitialized = errors.New("stats already initialized")

type stats struct {
	AssetsResolved    *counter
	AssetsFailed      *counter
	BytesDownloaded   *counter
	StylesheetsParsed *counter
}

var (
	globalStats *stats
	doOnce      sync.Once
)

func Init() error {
	var done = false

	doOnce.Do(func() {
		globalStats = &stats{
			AssetsResolved:    &counter{},
			AssetsFailed:      &counter{},
			BytesDownloaded:   &counter{},
			StylesheetsParsed: &counter{},
		}
		done = true
	})

	if !done {
		return ErrStatsAlreadyInitialized
	}

	return nil
}

func Reset() {
	globalStats.AssetsResolved.reset()
	globalStats.AssetsFailed.reset()
	globalStats.BytesDownloaded.reset()
	globalStats.StylesheetsParsed.reset()
}

func AssetResolved()             { globalStats.AssetsResolved.incr(1) }
func AssetFailed()               { globalStats.AssetsFailed.incr(1) }
func BytesDownloaded(n uint64)   { globalStats.BytesDownloaded.incr(n) }
func StylesheetParsed()          { globalStats.StylesheetsParsed.incr(1) }
func GetAssetsResolved() uint64  { return globalStats.AssetsResolved.get() }
func GetAssetsFailed() uint64    { return globalStats.AssetsFailed.get() }
func GetBytesDownloaded() uint64 { return globalStats.BytesDownloaded.get() }
func GetStylesheets() uint64     { return globalStats.StylesheetsParsed.get() }
