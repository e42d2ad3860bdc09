package checkoutattempt

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"github.com/MarcGrol/checkoutbackend/services/product"
)

const (
	abandonedCartSubject = "You left something in your cart! 🛒"
	logoURL              = "https://fhybeyomiivepmlrampr.supabase.co/storage/v1/object/public/utils//rare-collectables-horizontal-logo.png"
	placeholderImageURL  = "https://fhybeyomiivepmlrampr.supabase.co/storage/v1/object/public/utils/no-image.png"
	relatedProductCount  = 3
)

//go:embed templates
var templateFolder embed.FS
var (
	abandonedCartTemplate *template.Template
)

func init() {
	abandonedCartTemplate = template.Must(template.ParseFS(templateFolder, "templates/abandoned_cart.html"))
}

type abandonedCartPage struct {
	LogoURL         string
	CheckoutURL     string
	CartProducts    []productCard
	RelatedProducts []productCard
	Year            int
}

type productCard struct {
	URL      string
	ImageURL string
	Name     string
	Price    string
}

type emailRenderer struct {
	storefrontURL string
}

func (r emailRenderer) render(guestSessionID string, cart []product.Product, related []product.Product, year int) (string, error) {
	page := abandonedCartPage{
		LogoURL:         logoURL,
		CheckoutURL:     fmt.Sprintf("%s/checkout?session=%s", r.storefrontURL, url.QueryEscape(guestSessionID)),
		CartProducts:    r.cards(cart),
		RelatedProducts: r.cards(related),
		Year:            year,
	}

	buf := &bytes.Buffer{}
	err := abandonedCartTemplate.Execute(buf, page)
	if err != nil {
		return "", fmt.Errorf("error rendering abandoned-cart email: %s", err)
	}
	return buf.String(), nil
}

func (r emailRenderer) cards(products []product.Product) []productCard {
	cards := []productCard{}
	for _, p := range products {
		card := productCard{
			URL:      fmt.Sprintf("%s/product/%s", r.storefrontURL, url.PathEscape(p.UID)),
			ImageURL: p.ImageURL,
			Name:     p.Name,
		}
		if !p.HasImage() {
			card.ImageURL = placeholderImageURL
		}
		if strings.TrimSpace(card.Name) == "" {
			card.Name = "Product"
		}
		if p.PriceInPence > 0 {
			card.Price = p.FormattedPrice()
		}
		cards = append(cards, card)
	}
	return cards
}

func (r emailRenderer) renderText(guestSessionID string, cart []product.Product) string {
	sb := strings.Builder{}
	sb.WriteString("Did you forget something?\n\nYou left these item(s) in your cart:\n")
	for _, p := range cart {
		fmt.Fprintf(&sb, "- %s %s\n", p.Name, p.FormattedPrice())
	}
	fmt.Fprintf(&sb, "\nResume your order: %s/checkout?session=%s\n", r.storefrontURL, url.QueryEscape(guestSessionID))
	return sb.String()
}
