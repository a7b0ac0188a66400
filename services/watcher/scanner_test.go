package watcher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cardwatch-backend/lib/fetch"
	"cardwatch-backend/lib/testutil"
	"cardwatch-backend/services/watcher/classify"
	"cardwatch-backend/services/watcher/db"
	"cardwatch-backend/services/watcher/notify"

	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	errs  map[string]error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (fetch.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[url]; ok {
		return fetch.Result{}, err
	}
	body, ok := f.pages[url]
	if !ok {
		return fetch.Result{}, fetch.ErrGone
	}
	return fetch.Result{Body: body, StatusCode: 200}, nil
}

func (f *fakeFetcher) set(url, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[url] = body
	delete(f.errs, url)
}

func (f *fakeFetcher) fail(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[url] = err
}

func (f *fakeFetcher) drop(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pages, url)
	delete(f.errs, url)
}

type recordingNotifier struct {
	mu   sync.Mutex
	fail bool
	sent []notify.Notification
}

func (n *recordingNotifier) Send(ctx context.Context, notification notify.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("transport is down")
	}
	n.sent = append(n.sent, notification)
	return nil
}

func (n *recordingNotifier) notifications() []notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Notification{}, n.sent...)
}

const soldOutPage = `<html><head><title>KP09 Display</title></head><body>
<h1 class="product-title">Reisegefährten (KP09) 36er Display (DE)</h1>
<div class="product__price">159,99€</div>
<span class="badge">Ausverkauft</span>
</body></html>`

const availablePage = `<html><head><title>KP09 Display</title></head><body>
<h1 class="product-title">Reisegefährten (KP09) 36er Display (DE)</h1>
<div class="product__price">159,99€</div>
<form><button name="add">In den Warenkorb</button></form>
</body></html>`

const productUrl = "https://tcgviert.com/products/kp09-display"

func setupScanner(t *testing.T, opts Options, freshFor time.Duration) (*Scanner, *fakeFetcher, *recordingNotifier, Ledger) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/watcher",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	fetcher := &fakeFetcher{pages: map[string]string{}, errs: map[string]error{}}
	notifier := &recordingNotifier{}
	ledger := NewLedger(setup.DB)
	cache := NewScanCache(setup.DB, freshFor)
	scanner := NewScanner(fetcher, notifier, ledger, cache, opts)
	return scanner, fetcher, notifier, ledger
}

func TestScannerLifecycle(t *testing.T) {
	scanner, fetcher, notifier, ledger := setupScanner(t, Options{}, time.Hour*12)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	sources := []Source{{Site: "tcgviert", Url: productUrl}}

	// first sighting, sold out
	fetcher.set(productUrl, soldOutPage)
	require.NoError(t, scanner.ScanCycle(ctx, sources))
	sent := notifier.notifications()
	require.Len(t, sent, 1)
	require.Equal(t, "❌ Ausverkauft", sent[0].Status)
	require.Equal(t, "159,99€", sent[0].Price)

	entry, err := ledger.GetEntry(ctx, "tcgviert_kp09_display_de")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, classify.StateOutOfStock, entry.LastState)

	// unchanged page stays silent
	require.NoError(t, scanner.ScanCycle(ctx, sources))
	require.Len(t, notifier.notifications(), 1)

	// restock
	fetcher.set(productUrl, availablePage)
	require.NoError(t, scanner.ScanCycle(ctx, sources))
	sent = notifier.notifications()
	require.Len(t, sent, 2)
	require.Equal(t, "🎉 Wieder verfügbar!", sent[1].Status)
	require.Equal(t, productUrl, sent[1].Url)

	// sellout is recorded but not delivered by default
	fetcher.set(productUrl, soldOutPage)
	require.NoError(t, scanner.ScanCycle(ctx, sources))
	require.Len(t, notifier.notifications(), 2)

	entry, err = ledger.GetEntry(ctx, "tcgviert_kp09_display_de")
	require.NoError(t, err)
	require.Equal(t, classify.StateOutOfStock, entry.LastState)
	// the suppressed event still counts as handled, so the next restock
	// is a BACK_IN_STOCK rather than a duplicate
	require.NotNil(t, entry.LastNotifiedState)
	require.Equal(t, classify.StateOutOfStock, *entry.LastNotifiedState)

	fetcher.set(productUrl, availablePage)
	require.NoError(t, scanner.ScanCycle(ctx, sources))
	sent = notifier.notifications()
	require.Len(t, sent, 3)
	require.Equal(t, "🎉 Wieder verfügbar!", sent[2].Status)
}

func TestScannerOnlyAvailable(t *testing.T) {
	scanner, fetcher, notifier, ledger := setupScanner(t, Options{
		Gate: GateOptions{OnlyAvailable: true},
	}, time.Hour*12)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	sources := []Source{{Site: "tcgviert", Url: productUrl}}

	// sold-out discovery is filtered from delivery but still tracked
	fetcher.set(productUrl, soldOutPage)
	require.NoError(t, scanner.ScanCycle(ctx, sources))
	require.Len(t, notifier.notifications(), 0)

	entry, err := ledger.GetEntry(ctx, "tcgviert_kp09_display_de")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.NotNil(t, entry.LastNotifiedState)

	// so the restock still fires
	fetcher.set(productUrl, availablePage)
	require.NoError(t, scanner.ScanCycle(ctx, sources))
	sent := notifier.notifications()
	require.Len(t, sent, 1)
	require.Equal(t, "🎉 Wieder verfügbar!", sent[0].Status)
}

func TestScannerFetchFailure(t *testing.T) {
	scanner, fetcher, notifier, ledger := setupScanner(t, Options{}, time.Hour*12)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	sources := []Source{{Site: "tcgviert", Url: productUrl}}

	fetcher.set(productUrl, availablePage)
	require.NoError(t, scanner.ScanCycle(ctx, sources))
	require.Len(t, notifier.notifications(), 1)

	// three consecutive timeouts classify as UNKNOWN, the last known
	// state survives and nothing fires
	fetcher.fail(productUrl, errors.New("context deadline exceeded"))
	for i := 0; i < 3; i++ {
		require.NoError(t, scanner.ScanCycle(ctx, sources))
	}
	require.Len(t, notifier.notifications(), 1)

	entry, err := ledger.GetEntry(ctx, "tcgviert_kp09_display_de")
	require.NoError(t, err)
	require.Equal(t, classify.StateAvailable, entry.LastState)

	// recovery with an unchanged page stays silent
	fetcher.set(productUrl, availablePage)
	require.NoError(t, scanner.ScanCycle(ctx, sources))
	require.Len(t, notifier.notifications(), 1)
}

func TestScannerFailedSendRetries(t *testing.T) {
	scanner, fetcher, notifier, ledger := setupScanner(t, Options{}, time.Hour*12)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	sources := []Source{{Site: "tcgviert", Url: productUrl}}

	fetcher.set(productUrl, availablePage)
	notifier.fail = true
	require.NoError(t, scanner.ScanCycle(ctx, sources))
	require.Len(t, notifier.notifications(), 0)

	// the failed send left the entry unnotified
	entry, err := ledger.GetEntry(ctx, "tcgviert_kp09_display_de")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Nil(t, entry.LastNotifiedState)

	// the page is unchanged, so the scan cache considers it fresh; the
	// pending delivery must still be retried once the transport recovers
	notifier.fail = false
	require.NoError(t, scanner.ScanCycle(ctx, sources))
	require.Len(t, notifier.notifications(), 1)

	entry, err = ledger.GetEntry(ctx, "tcgviert_kp09_display_de")
	require.NoError(t, err)
	require.NotNil(t, entry.LastNotifiedState)
	require.Equal(t, classify.StateAvailable, *entry.LastNotifiedState)

	// settled again: further unchanged cycles stay silent
	require.NoError(t, scanner.ScanCycle(ctx, sources))
	require.Len(t, notifier.notifications(), 1)
}

func TestScannerCatalogFailedSendRetries(t *testing.T) {
	scanner, fetcher, notifier, ledger := setupScanner(t, Options{
		Watch: []string{"reisegefährten display"},
	}, time.Hour*12)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	sources := []Source{{Site: "tcgviert", Url: catalogUrl, Language: "de", Catalog: true}}

	fetcher.set(catalogUrl, catalogBody)
	notifier.fail = true
	require.NoError(t, scanner.ScanCycle(ctx, sources))
	require.Len(t, notifier.notifications(), 0)

	entry, err := ledger.GetEntry(ctx, "tcgviert_kp09_display_de")
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Nil(t, entry.LastNotifiedState)

	// the unchanged catalog must be walked again until the send lands
	notifier.fail = false
	require.NoError(t, scanner.ScanCycle(ctx, sources))
	sent := notifier.notifications()
	require.Len(t, sent, 1)
	require.Equal(t, "Reisegefährten (KP09) 36er Display (DE)", sent[0].Title)

	require.NoError(t, scanner.ScanCycle(ctx, sources))
	require.Len(t, notifier.notifications(), 1)
}

func TestScannerGonePage(t *testing.T) {
	scanner, fetcher, notifier, _ := setupScanner(t, Options{}, time.Hour*12)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	sources := []Source{{Site: "tcgviert", Url: productUrl}}

	fetcher.set(productUrl, availablePage)
	require.NoError(t, scanner.ScanCycle(ctx, sources))
	require.Len(t, notifier.notifications(), 1)

	fetcher.drop(productUrl)
	require.NoError(t, scanner.ScanCycle(ctx, sources))
	// gone pages produce no events, the URL is just dropped from the
	// scan cache
	require.Len(t, notifier.notifications(), 1)
}

const catalogUrl = "https://tcgviert.com/products.json"

const catalogBody = `{"products":[
	{"title":"Reisegefährten (KP09) 36er Display (DE)","handle":"kp09-display",
	 "variants":[{"price":"159.99","available":true}]},
	{"title":"Unrelated Accessory Thing","handle":"accessory",
	 "variants":[{"price":"9.99","available":false}]}
]}`

func TestScannerCatalog(t *testing.T) {
	scanner, fetcher, notifier, ledger := setupScanner(t, Options{
		Watch: []string{"reisegefährten display"},
	}, time.Hour*12)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	sources := []Source{{Site: "tcgviert", Url: catalogUrl, Language: "de", Catalog: true}}

	fetcher.set(catalogUrl, catalogBody)
	require.NoError(t, scanner.ScanCycle(ctx, sources))

	sent := notifier.notifications()
	require.Len(t, sent, 1)
	require.Equal(t, "Reisegefährten (KP09) 36er Display (DE)", sent[0].Title)
	require.Equal(t, "https://tcgviert.com/products/kp09-display", sent[0].Url)
	require.Equal(t, "159.99€", sent[0].Price)
	require.Equal(t, "✅ Verfügbar", sent[0].Status)

	// the filtered product was never tracked
	entries, err := ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "tcgviert_kp09_display_de", entries[0].Key)

	// unchanged catalog stays silent
	require.NoError(t, scanner.ScanCycle(ctx, sources))
	require.Len(t, notifier.notifications(), 1)
}

const mixedCatalogBody = `{"products":[
	{"title":"Reisegefährten (KP09) 36er Display (DE)","handle":"kp09-display",
	 "variants":[{"price":"159.99","available":true}]},
	{"title":"One Piece Royal Blood OP-10 Display","handle":"op10-display",
	 "variants":[{"price":"129.99","available":true}]}
]}`

func TestScannerExclude(t *testing.T) {
	scanner, fetcher, notifier, ledger := setupScanner(t, Options{
		Watch:   []string{"display"},
		Exclude: []string{"one piece", "yugioh"},
	}, time.Hour*12)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()
	sources := []Source{{Site: "mightycards", Url: catalogUrl, Language: "de", Catalog: true}}

	fetcher.set(catalogUrl, mixedCatalogBody)
	require.NoError(t, scanner.ScanCycle(ctx, sources))

	// the excluded game never reaches the ledger even though its title
	// matches the watch filter
	sent := notifier.notifications()
	require.Len(t, sent, 1)
	require.Equal(t, "Reisegefährten (KP09) 36er Display (DE)", sent[0].Title)

	entries, err := ledger.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "mightycards_kp09_display_de", entries[0].Key)
}
