package amazon

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/lukotrack/luko/internal/domain"
)

// Marketplaces the pricing API can serve.
const (
	MarketplaceUS = "amazon.com"
	MarketplaceCA = "amazon.ca"
)

var asinPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// Resolver turns pasted listing URLs into (marketplace, ASIN) pairs.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve validates the link, picks the marketplace from the host and pulls
// the ASIN out of the /dp/<asin> or /product/<asin> path segment.
func (r *Resolver) Resolve(rawURL string) (string, string, error) {
	decoded, err := url.QueryUnescape(rawURL)
	if err != nil {
		decoded = rawURL
	}
	parsed, err := url.Parse(decoded)
	if err != nil || parsed.Hostname() == "" {
		return "", "", domain.ErrInvalidProductLink
	}

	host := strings.ToLower(parsed.Hostname())
	if !strings.Contains(host, "amazon") {
		return "", "", domain.ErrInvalidProductLink
	}

	marketplace, ok := marketplaceForHost(host)
	if !ok {
		return "", "", domain.ErrUnsupportedMarketplace
	}

	asin, ok := extractASIN(parsed.Path)
	if !ok {
		return "", "", domain.ErrProductNotFound
	}
	return marketplace, asin, nil
}

func marketplaceForHost(host string) (string, bool) {
	switch {
	case strings.HasSuffix(host, MarketplaceUS):
		return MarketplaceUS, true
	case strings.HasSuffix(host, MarketplaceCA):
		return MarketplaceCA, true
	default:
		return "", false
	}
}

func extractASIN(path string) (string, bool) {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		if segment != "dp" && segment != "product" {
			continue
		}
		if i+1 >= len(segments) {
			return "", false
		}
		candidate := strings.ToUpper(segments[i+1])
		if asinPattern.MatchString(candidate) {
			return candidate, true
		}
	}
	return "", false
}
