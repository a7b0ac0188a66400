package watcher

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestResolveIdentity(t *testing.T) {
	testCases := []struct {
		title    string
		site     string
		language string
		expected string
	}{
		{
			title:    "Pokémon TCG: Reisegefährten (KP09) - 36er Display (DE)",
			site:     "tcgviert",
			expected: "tcgviert_kp09_display_de",
		},
		{
			title:    "Pokémon TCG: Journey Together (SV09) Booster Pack (EN)",
			site:     "tcgviert",
			expected: "tcgviert_sv09_booster_en",
		},
		{
			title:    "One Piece Card Game Royal Blood OP-10 Display",
			site:     "gamesisland",
			language: "en",
			expected: "gamesisland_op10_display_en",
		},
		{
			// named set without its code
			title:    "Reisegefährten Top Trainer Box (DE)",
			site:     "kofuku",
			expected: "kofuku_kp09_box_de_top",
		},
		{
			title:    "Premium Checklane Blister SV09 (EN)",
			site:     "comicplanet",
			expected: "comicplanet_sv09_blister_en_premium",
		},
		{
			// only the type is extractable
			title:    "Mystery Display japanisch japan",
			site:     "sapphirecards",
			expected: "sapphirecards_unknown_display_jp",
		},
		{
			// site default language applies when the title carries none
			title:    "KP09 36er Display",
			site:     "tcgviert",
			language: "de",
			expected: "tcgviert_kp09_display_de",
		},
		{
			title:    "KP09 36er Display",
			site:     "tcgviert",
			expected: "tcgviert_kp09_display_unk",
		},
	}

	for _, tc := range testCases {
		id := ResolveIdentity(RawProduct{Site: tc.site, Title: tc.title}, tc.language)
		require.Equal(t, tc.expected, id.Key(), "title: %s", tc.title)
		require.False(t, id.Degraded, "title: %s", tc.title)
	}
}

func TestResolveIdentityDeterministic(t *testing.T) {
	raw := RawProduct{
		Site:  "tcgviert",
		Title: "Pokémon TCG: Reisegefährten (KP09) - 36er Display (DE)",
	}
	first := ResolveIdentity(raw, "")
	for i := 0; i < 10; i++ {
		diff := cmp.Diff(first, ResolveIdentity(raw, ""))
		require.Empty(t, diff)
	}
}

func TestResolveIdentityDistinctTypes(t *testing.T) {
	display := ResolveIdentity(RawProduct{
		Site:  "tcgviert",
		Title: "Reisegefährten (KP09) 36er Display (DE)",
	}, "")
	box := ResolveIdentity(RawProduct{
		Site:  "tcgviert",
		Title: "Reisegefährten (KP09) Top Trainer Box (DE)",
	}, "")
	require.NotEqual(t, display.Key(), box.Key())
}

func TestResolveIdentityDegraded(t *testing.T) {
	a := ResolveIdentity(RawProduct{Site: "kofuku", Title: "Some Mystery Bundle"}, "de")
	b := ResolveIdentity(RawProduct{Site: "kofuku", Title: "Another Mystery Bundle"}, "de")

	require.True(t, a.Degraded)
	require.True(t, b.Degraded)
	require.NotEqual(t, a.Key(), b.Key())

	// stable across runs
	again := ResolveIdentity(RawProduct{Site: "kofuku", Title: "Some Mystery Bundle"}, "de")
	require.Equal(t, a.Key(), again.Key())
}

func TestKeyFieldSanitization(t *testing.T) {
	id := Identity{
		Site:     "tcg viert",
		Series:   "kp_09",
		Type:     "Display",
		Language: "DE",
	}
	require.Equal(t, "tcg-viert_kp09_display_de", id.Key())
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint("KP09 Display 159,99€ ausverkauft")
	require.Equal(t, a, Fingerprint("KP09 Display 159,99€ ausverkauft"))
	require.NotEqual(t, a, Fingerprint("KP09 Display 149,99€ ausverkauft"))
}
