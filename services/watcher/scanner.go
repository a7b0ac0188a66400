package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"cardwatch-backend/lib/fetch"
	"cardwatch-backend/lib/htmlutil"
	"cardwatch-backend/lib/textutil"
	"cardwatch-backend/lib/timezone"
	"cardwatch-backend/services/watcher/classify"
	"cardwatch-backend/services/watcher/notify"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("services/watcher")

// Source is one URL the watcher polls. Catalog sources are shopify
// /products.json endpoints carrying many products per fetch; everything
// else is a single product page.
type Source struct {
	Site     string `json:"site"`
	Url      string `json:"url"`
	Language string `json:"language"`
	Catalog  bool   `json:"catalog"`
}

type Options struct {
	Gate GateOptions
	// keyword filters; a product is tracked when any filter matches its
	// title. empty means track everything.
	Watch []string
	// titles containing any of these terms are never tracked, even when
	// a watch filter matches. catalogs of mixed-game shops need this to
	// keep other card games out of the ledger.
	Exclude []string
	// concurrent fetches per cycle
	MaxParallel int
}

// Scanner drives one fetch -> classify -> detect -> notify pass over
// all configured sources. fetches run concurrently, but everything
// touching the ledger runs serially so there is exactly one writer per
// product key.
type Scanner struct {
	fetcher  fetch.Fetcher
	notifier notify.Notifier
	ledger   Ledger
	cache    ScanCache
	opts     Options
	watch    [][]string
	exclude  []string
}

func NewScanner(fetcher fetch.Fetcher, notifier notify.Notifier, ledger Ledger, cache ScanCache, opts Options) *Scanner {
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 4
	}
	watch := make([][]string, len(opts.Watch))
	for i, term := range opts.Watch {
		watch[i] = textutil.Tokens(term)
	}
	exclude := make([]string, len(opts.Exclude))
	for i, term := range opts.Exclude {
		exclude[i] = textutil.CleanText(term)
	}
	return &Scanner{
		fetcher:  fetcher,
		notifier: notifier,
		ledger:   ledger,
		cache:    cache,
		opts:     opts,
		watch:    watch,
		exclude:  exclude,
	}
}

type fetched struct {
	source Source
	result fetch.Result
	err    error
}

// ScanCycle runs a single pass over the given sources. individual
// source failures are logged and skipped, they never abort the cycle;
// the returned error only reflects a cancelled context.
func (s *Scanner) ScanCycle(ctx context.Context, sources []Source) error {
	ctx, span := tracer.Start(ctx, "ScanCycle")
	defer span.End()
	span.SetAttributes(attribute.Int("sources", len(sources)))

	results := make([]fetched, len(sources))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.opts.MaxParallel)
	for i, source := range sources {
		i, source := i, source
		group.Go(func() error {
			result, err := s.fetcher.Fetch(groupCtx, source.Url)
			results[i] = fetched{source: source, result: result, err: err}
			return nil
		})
	}
	// workers never return errors, Wait only surfaces cancellation
	err := group.Wait()
	if err != nil {
		return err
	}

	now := time.Now()
	for _, f := range results {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := s.processSource(ctx, f, now)
		if err != nil {
			slog.ErrorContext(
				ctx, "failed to process source",
				"site", f.source.Site,
				"url", f.source.Url,
				"err", err,
			)
		}
	}
	return nil
}

func (s *Scanner) processSource(ctx context.Context, f fetched, now time.Time) error {
	if f.err != nil {
		if errors.Is(f.err, fetch.ErrGone) {
			slog.WarnContext(
				ctx, "page gone, dropping from scan cache",
				"site", f.source.Site,
				"url", f.source.Url,
			)
			return s.cache.Forget(ctx, f.source.Url)
		}
		// transient failure: treat the page as UNKNOWN. if we know which
		// product lives at this URL, record the attempt so its
		// lastCheckedAt keeps moving.
		slog.WarnContext(
			ctx, "fetch failed, treating as unknown",
			"site", f.source.Site,
			"url", f.source.Url,
			"err", f.err,
		)
		entry, err := s.cache.Get(ctx, f.source.Url)
		if err != nil {
			return err
		}
		if entry != nil && entry.ProductKey != "" {
			return s.ledger.Touch(ctx, entry.ProductKey, now)
		}
		return nil
	}

	if f.source.Catalog {
		return s.processCatalog(ctx, f, now)
	}
	return s.processPage(ctx, f, now)
}

func (s *Scanner) processPage(ctx context.Context, f fetched, now time.Time) error {
	doc, err := classify.ParsePage(f.result.Body)
	if err != nil {
		// unparseable markup classifies as UNKNOWN, same as a failed fetch
		slog.WarnContext(
			ctx, "unparseable page, treating as unknown",
			"url", f.source.Url,
			"err", err,
		)
		return nil
	}

	fingerprint := Fingerprint(htmlutil.VisibleText(doc.Selection))
	cached, err := s.cache.Get(ctx, f.source.Url)
	if err != nil {
		return err
	}
	if s.cache.Fresh(cached, fingerprint, now) {
		if cached.ProductKey == "" {
			return nil
		}
		entry, err := s.ledger.GetEntry(ctx, cached.ProductKey)
		if err != nil {
			return err
		}
		// an undelivered transition must be retried even though the page
		// is unchanged; the cache only ever saves work, never a send
		if !deliveryPending(entry) {
			return s.ledger.Touch(ctx, cached.ProductKey, now)
		}
	}

	title := pageTitle(doc)
	if title == "" {
		slog.WarnContext(ctx, "page has no product title", "url", f.source.Url)
		return nil
	}
	if !s.watches(title) {
		// remember the fingerprint so the filter is not re-evaluated
		// against an unchanged page every cycle
		return s.cache.Put(ctx, ScanCacheEntry{
			Url:         f.source.Url,
			Site:        f.source.Site,
			Fingerprint: fingerprint,
		}, now)
	}

	result := classify.ForSite(f.source.Site).Classify(doc)
	identity := ResolveIdentity(RawProduct{
		Site:  f.source.Site,
		Title: title,
		Url:   f.source.Url,
	}, f.source.Language)

	_, err = s.processProduct(ctx, identity, title, f.source.Url, result, fingerprint, now)
	if err != nil {
		return err
	}
	return s.cache.Put(ctx, ScanCacheEntry{
		Url:         f.source.Url,
		Site:        f.source.Site,
		Fingerprint: fingerprint,
		ProductKey:  identity.Key(),
	}, now)
}

func (s *Scanner) processCatalog(ctx context.Context, f fetched, now time.Time) error {
	fingerprint := Fingerprint(f.result.Body)
	cached, err := s.cache.Get(ctx, f.source.Url)
	if err != nil {
		return err
	}
	if s.cache.Fresh(cached, fingerprint, now) {
		return nil
	}

	items, err := classify.ParseShopifyCatalog(catalogBaseUrl(f.source.Url), f.result.Body)
	if err != nil {
		slog.WarnContext(
			ctx, "unparseable catalog, treating as unknown",
			"url", f.source.Url,
			"err", err,
		)
		return nil
	}

	var errlist []error
	settled := true
	for _, item := range items {
		if !s.watches(item.Title) {
			continue
		}
		identity := ResolveIdentity(RawProduct{
			Site:  f.source.Site,
			Title: item.Title,
			Url:   item.Url,
		}, f.source.Language)
		result := classify.Result{State: item.State, Price: item.Price}

		// a failing product key must not block the rest of the catalog
		itemSettled, err := s.processProduct(ctx, identity, item.Title, item.Url, result, fingerprint, now)
		if err != nil {
			errlist = append(errlist, fmt.Errorf("%s: %w", identity.Key(), err))
		}
		if !itemSettled {
			settled = false
		}
	}
	if len(errlist) > 0 {
		return errors.Join(errlist...)
	}
	// an undelivered item leaves the cache stale so the next cycle walks
	// the catalog again and retries the send
	if !settled {
		return nil
	}
	return s.cache.Put(ctx, ScanCacheEntry{
		Url:         f.source.Url,
		Site:        f.source.Site,
		Fingerprint: fingerprint,
	}, now)
}

// deliveryPending reports whether the entry carries a transition that
// was never accepted for dispatch, either because it was just observed
// or because the send failed
func deliveryPending(entry *LedgerEntry) bool {
	if entry == nil || entry.LastState == classify.StateUnknown {
		return false
	}
	return entry.LastNotifiedState == nil || *entry.LastNotifiedState != entry.LastState
}

// processProduct is the single write path into the ledger: decide on
// the event against the prior entry, persist the sighting, then
// deliver. the sighting is committed before any send so a crash can
// duplicate a notification but never lose an observation; a failed
// send leaves lastNotifiedState untouched so the next cycle retries.
//
// settled is false when a delivery is still pending for this key,
// callers must not let the scan cache skip over it.
func (s *Scanner) processProduct(
	ctx context.Context,
	identity Identity,
	title, pageUrl string,
	result classify.Result,
	fingerprint string,
	now time.Time,
) (settled bool, err error) {
	key := identity.Key()
	if identity.Degraded {
		slog.WarnContext(
			ctx, "no series or product type in title, falling back to title hash",
			"site", identity.Site,
			"title", title,
			"key", key,
		)
	}

	prior, err := s.ledger.GetEntry(ctx, key)
	if err != nil {
		return false, err
	}
	event, ok := Decide(prior, result.State, s.opts.Gate)

	_, err = s.ledger.RecordSighting(ctx, Sighting{
		Identity:    identity,
		Title:       title,
		Url:         pageUrl,
		State:       result.State,
		Fingerprint: fingerprint,
	}, now)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}

	slog.InfoContext(
		ctx, "stock event",
		"kind", event.Kind.String(),
		"key", key,
		"state", event.State.String(),
		"deliver", event.Deliver,
	)
	if event.Deliver {
		err = s.notifier.Send(ctx, notify.Notification{
			Title:  title,
			Price:  result.Price,
			Status: statusText(event),
			Url:    pageUrl,
			Site:   identity.Site,
		})
		if err != nil {
			// leave lastNotifiedState unset so the transition fires again
			// next cycle
			slog.ErrorContext(ctx, "failed to send notification", "key", key, "err", err)
			return false, nil
		}
	}
	err = s.ledger.MarkNotified(ctx, key, event.State)
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Scanner) watches(title string) bool {
	normalized := textutil.CleanText(title)
	for _, term := range s.exclude {
		if term != "" && strings.Contains(normalized, term) {
			return false
		}
	}
	if len(s.watch) == 0 {
		return true
	}
	for _, keywords := range s.watch {
		if textutil.MatchesKeywords(keywords, title) {
			return true
		}
	}
	return false
}

func statusText(event Event) string {
	switch event.Kind {
	case EventBackInStock:
		return "🎉 Wieder verfügbar!"
	case EventNowOutOfStock:
		return "❌ Ausverkauft"
	}
	if event.State == classify.StateAvailable {
		return "✅ Verfügbar"
	}
	return "❌ Ausverkauft"
}

var titleSelectors = []string{
	".product__title h1",
	".product__title",
	".product-single__title",
	"h1.product-title",
	".product-detail h1",
	"h1",
}

func pageTitle(doc *goquery.Document) string {
	for _, selector := range titleSelectors {
		title := htmlutil.VisibleText(doc.Find(selector).First())
		if title != "" {
			return title
		}
	}
	return htmlutil.VisibleText(doc.Find("title").First())
}

func catalogBaseUrl(catalogUrl string) string {
	parsed, err := url.Parse(catalogUrl)
	if err != nil {
		return ""
	}
	return parsed.Scheme + "://" + parsed.Host
}

// Run scans in a loop until the context is cancelled, sleeping per the
// schedule between cycles. the interval is re-evaluated each cycle so
// date-ranged rules take effect without a restart.
func (s *Scanner) Run(ctx context.Context, sources []Source, schedule Schedule) error {
	for {
		err := s.ScanCycle(ctx, sources)
		if err != nil {
			return err
		}

		interval := schedule.IntervalAt(timezone.Now())
		slog.DebugContext(ctx, "cycle complete", "next_in", interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
