package scraper

import (
	"bytes"
	"net/url"
	"path"
	"shopscout/shopscout/utils/types"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Selectors are the CSS selectors of the catalog markup. The defaults match
// WooCommerce storefronts.
type Selectors struct {
	ProductCard  string `yaml:"product_card"`
	CardTitle    string `yaml:"card_title"`
	Title        string `yaml:"title"`
	SalePrice    string `yaml:"sale_price"`
	Price        string `yaml:"price"`
	Description  string `yaml:"description"`
	GalleryImage string `yaml:"gallery_image"`
	Category     string `yaml:"category"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		ProductCard:  "a.woocommerce-LoopProduct-link",
		CardTitle:    ".woocommerce-loop-product__title",
		Title:        "h1.product_title",
		SalePrice:    "p.price ins .woocommerce-Price-amount",
		Price:        "p.price .woocommerce-Price-amount",
		Description:  "div.woocommerce-product-details__short-description",
		GalleryImage: "div.woocommerce-product-gallery__image img",
		Category:     ".product_meta .posted_in a",
	}
}

// Merge fills every empty selector from fallback.
func (s Selectors) Merge(fallback Selectors) Selectors {
	pick := func(v, d string) string {
		if strings.TrimSpace(v) == "" {
			return d
		}
		return v
	}
	return Selectors{
		ProductCard:  pick(s.ProductCard, fallback.ProductCard),
		CardTitle:    pick(s.CardTitle, fallback.CardTitle),
		Title:        pick(s.Title, fallback.Title),
		SalePrice:    pick(s.SalePrice, fallback.SalePrice),
		Price:        pick(s.Price, fallback.Price),
		Description:  pick(s.Description, fallback.Description),
		GalleryImage: pick(s.GalleryImage, fallback.GalleryImage),
		Category:     pick(s.Category, fallback.Category),
	}
}

// Parser is safe for concurrent use.
type Parser struct {
	sel Selectors
}

func NewParser(sel Selectors) *Parser {
	return &Parser{sel: sel.Merge(DefaultSelectors())}
}

// ParseListing returns the product cards of a listing page. Cards without a
// link are dropped; relative links are resolved against pageURL.
func (p *Parser) ParseListing(body []byte, contentType, pageURL string) ([]types.ListingCard, error) {
	doc, err := newDocument(body, contentType)
	if err != nil {
		return nil, err
	}
	base, _ := url.Parse(pageURL)

	var cards []types.ListingCard
	doc.Find(p.sel.ProductCard).Each(func(i int, s *goquery.Selection) {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" {
			return
		}
		cards = append(cards, types.ListingCard{
			URL:   resolve(base, href),
			Title: collapsedText(s.Find(p.sel.CardTitle).First()),
		})
	})
	return cards, nil
}

// ParseProduct extracts a product record from a detail page. Absent fields
// come back empty.
func (p *Parser) ParseProduct(body []byte, contentType, pageURL string) (types.ProductRecord, error) {
	doc, err := newDocument(body, contentType)
	if err != nil {
		return types.ProductRecord{}, err
	}
	base, _ := url.Parse(pageURL)

	title := collapsedText(doc.Find(p.sel.Title).First())

	priceSel := doc.Find(p.sel.SalePrice).First()
	if priceSel.Length() == 0 {
		priceSel = doc.Find(p.sel.Price).First()
	}

	var brand string
	if fields := strings.Fields(title); len(fields) > 0 {
		brand = fields[0]
	}

	return types.ProductRecord{
		Title:       title,
		Price:       strippedText(priceSel),
		Description: strings.Join(textLines(doc.Find(p.sel.Description).First()), "\n"),
		Images:      p.galleryImages(doc, base),
		Category:    TitleCase(collapsedText(doc.Find(p.sel.Category).First())),
		Brand:       brand,
	}, nil
}

func (p *Parser) galleryImages(doc *goquery.Document, base *url.URL) []string {
	images := []string{}
	seen := map[string]struct{}{}
	doc.Find(p.sel.GalleryImage).Each(func(i int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" {
			return
		}
		src = resolve(base, src)
		if IsCopyAsset(src) {
			return
		}
		if _, dup := seen[src]; dup {
			return
		}
		seen[src] = struct{}{}
		images = append(images, src)
	})
	return images
}

// TitleCase upper-cases the first letter of every word and lower-cases the rest.
func TitleCase(s string) string {
	// a Caser keeps state, so one per call
	return cases.Title(language.Und).String(s)
}

// IsCopyAsset reports whether the file name of an image URL marks it as a
// duplicate upload ("photo-copy.jpg", "Copy of photo.jpg").
func IsCopyAsset(src string) bool {
	name := src
	if u, err := url.Parse(src); err == nil && u.Path != "" {
		name = u.Path
	}
	return strings.Contains(strings.ToLower(path.Base(name)), "copy")
}

func newDocument(body []byte, contentType string) (*goquery.Document, error) {
	// Decode to UTF-8 if needed
	enc, _, _ := charset.DetermineEncoding(body, contentType)
	data, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		if !utf8.Valid(body) {
			return nil, err
		}
		data = body
	}
	return goquery.NewDocumentFromReader(bytes.NewReader(data))
}

func resolve(base *url.URL, ref string) string {
	if base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// strippedText joins the trimmed text nodes of the selection without a separator.
func strippedText(s *goquery.Selection) string {
	return strings.Join(textLines(s), "")
}

// collapsedText is the selection text with runs of whitespace folded to one space.
func collapsedText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// textLines returns every non-blank text node under the selection, trimmed.
func textLines(s *goquery.Selection) []string {
	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				lines = append(lines, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return lines
}
