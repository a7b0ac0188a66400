package main

import (
	"testing"

	"cardwatch-backend/services/watcher"

	"github.com/stretchr/testify/require"
)

func TestPrepareConfig(t *testing.T) {
	// a config without sites must be rejected, not scanned forever
	_, err := prepareConfig(Config{})
	require.Error(t, err)

	_, err = prepareConfig(Config{
		Sites: []watcher.Source{{Site: "tcgviert"}},
	})
	require.Error(t, err)
	_, err = prepareConfig(Config{
		Sites: []watcher.Source{{Url: "https://tcgviert.com/products.json"}},
	})
	require.Error(t, err)

	config, err := prepareConfig(Config{
		Sites: []watcher.Source{{
			Site: "tcgviert",
			Url:  "https://tcgviert.com/products.json",
		}},
	})
	require.NoError(t, err)
	require.Equal(t, "data/cardwatch.db", config.Database)
	require.Equal(t, 12, config.FreshForHours)
	require.Equal(t, 20, config.FetchTimeoutSeconds)
	require.Equal(t, 300, config.DefaultIntervalSeconds)

	// explicit values survive
	config, err = prepareConfig(Config{
		Database:               "/var/lib/cardwatch.db",
		FreshForHours:          1,
		DefaultIntervalSeconds: 60,
		Sites: []watcher.Source{{
			Site: "tcgviert",
			Url:  "https://tcgviert.com/products.json",
		}},
	})
	require.NoError(t, err)
	require.Equal(t, "/var/lib/cardwatch.db", config.Database)
	require.Equal(t, 1, config.FreshForHours)
	require.Equal(t, 60, config.DefaultIntervalSeconds)
}
