// Package mercadolivre implements the Mercado Livre vehicles connector.
package mercadolivre

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alexmarroig/Carpremiumsell/connectors"
	"github.com/alexmarroig/Carpremiumsell/models"
	"github.com/alexmarroig/Carpremiumsell/utils"
)

const (
	// SourceName is this connector's registry key and seller origin.
	SourceName = "mercado_livre"

	// BaseURL is the canonical entry point for vehicle searches.
	BaseURL = "https://carros.mercadolivre.com.br"
)

// Connector crawls paginated search results and listing detail pages.
// Pagination is strictly sequential; pacing and robots consultation happen
// before every page fetch.
type Connector struct {
	opts     connectors.Options
	robots   *connectors.RobotsGate
	throttle *connectors.Throttle
	retry    *utils.RetryConfig
	seen     *utils.URLSet
	log      *logrus.Logger
}

// New builds a Connector for one ingestion run.
func New(opts connectors.Options) connectors.Connector {
	return &Connector{
		opts:     opts,
		robots:   connectors.NewRobotsGate(BaseURL, opts.Config.UserAgent, opts.Logger),
		throttle: connectors.NewThrottle(opts.Config),
		retry: &utils.RetryConfig{
			MaxAttempts: opts.Config.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      opts.Logger,
		},
		seen: utils.NewURLSet(),
		log:  opts.Logger,
	}
}

// Register wires this connector into the registry under both spellings the
// scheduling collaborator has historically used.
func Register(r *connectors.Registry) {
	entry := connectors.Entry{BaseURL: BaseURL, Factory: New}
	r.Register(SourceName, entry)
	r.Register("mercadolivre", entry)
}

// Name implements connectors.Connector.
func (c *Connector) Name() string { return SourceName }

// FetchListings walks search pages and their listing details until the
// configured result limit is reached or the result set ends.
func (c *Connector) FetchListings(ctx context.Context, yield func(models.RawFields) error) error {
	searchURL := c.buildSearchURL(1)
	page := 1
	fetched := 0

	for searchURL != "" && fetched < c.opts.Limit {
		if err := c.robots.Guard(searchURL); err != nil {
			return err
		}
		if err := c.throttle.Wait(ctx); err != nil {
			return err
		}

		doc, err := c.fetch(ctx, searchURL)
		if err != nil {
			return fmt.Errorf("[%s] search page %d: %w", SourceName, page, err)
		}

		urls, next := ParseSearchPage(doc)
		c.log.Infof("[%s] page %d: %d listing urls (region=%s query=%q)",
			SourceName, page, len(urls), c.opts.RegionKey, c.opts.QueryText)
		if len(urls) == 0 {
			break
		}

		newOnPage := 0
		for _, url := range urls {
			if fetched >= c.opts.Limit {
				return nil
			}
			if !c.seen.Add(url) {
				continue
			}
			newOnPage++
			if err := c.robots.Guard(url); err != nil {
				return err
			}
			if err := c.throttle.Wait(ctx); err != nil {
				return err
			}

			detail, err := c.fetch(ctx, url)
			if err != nil {
				return fmt.Errorf("[%s] detail %s: %w", SourceName, url, err)
			}

			parsed := c.ParseListing(connectors.Payload{URL: url, HTML: detail})
			if err := yield(c.NormalizeFields(parsed)); err != nil {
				return err
			}
			fetched++
		}
		// Out-of-range page numbers serve the final page again; a page with
		// no unseen listings means the result set is exhausted.
		if newOnPage == 0 {
			break
		}

		page++
		if next == "" {
			next = c.buildSearchURL(page)
		}
		searchURL = next
	}
	return nil
}

// fetch retrieves one page with backoff on transient failures.
func (c *Connector) fetch(ctx context.Context, url string) (string, error) {
	var doc string
	err := c.retry.Do("fetch "+url, func() error {
		var ferr error
		doc, ferr = c.opts.Fetcher.Fetch(ctx, url)
		return ferr
	})
	return doc, err
}

// ParseListing implements connectors.Connector over one fetched page.
func (c *Connector) ParseListing(payload connectors.Payload) connectors.Parsed {
	parsed := ParseListingPage(payload.HTML, payload.URL)
	if parsed.ExternalID == "" {
		parsed.ExternalID = ExtractExternalID(payload.URL)
	}
	return parsed
}

// NormalizeFields maps this source's vocabulary into the shared raw-field
// shape. Pure function: no I/O, no mutation of the input.
func (c *Connector) NormalizeFields(parsed connectors.Parsed) models.RawFields {
	fields := models.RawFields{
		ExternalID: parsed.ExternalID,
		Year:       parsed.Year,
		MileageKM:  parsed.MileageKM,
		Price:      parsed.Price,
		Photos:     parsed.Photos,
		Seller:     parsed.Seller,
	}
	if parsed.Brand != "" {
		fields.Brand = models.StrPtr(parsed.Brand)
	}
	if parsed.Model != "" {
		fields.Model = models.StrPtr(parsed.Model)
	}
	if parsed.Trim != "" {
		fields.Trim = models.StrPtr(parsed.Trim)
	}
	if parsed.City != "" {
		fields.City = models.StrPtr(parsed.City)
	}
	if parsed.State != "" {
		fields.State = models.StrPtr(parsed.State)
	}
	if parsed.URL != "" {
		fields.URL = models.StrPtr(parsed.URL)
	}

	// Mercado Livre vehicle listings are overwhelmingly dealer inventory;
	// that is the source default when the page does not say otherwise.
	sellerType := parsed.SellerType
	if sellerType == "" {
		sellerType = "dealer"
	}
	fields.SellerType = models.StrPtr(sellerType)

	return fields
}

// buildSearchURL assembles the search entry point; pages past the first get
// an explicit ?page=N for result sets that omit the rel=next link.
func (c *Connector) buildSearchURL(page int) string {
	parts := []string{BaseURL}
	if region := strings.Trim(c.opts.RegionKey, "/"); region != "" {
		parts = append(parts, region)
	}
	if query := strings.TrimSpace(c.opts.QueryText); query != "" {
		slug := strings.ReplaceAll(query, " ", "-")
		parts = append(parts, slug+"_DisplayType_LF")
	}
	url := strings.Join(parts, "/")
	if page > 1 {
		url += fmt.Sprintf("?page=%d", page)
	}
	return url
}
