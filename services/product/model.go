package product

import (
	"fmt"
	"strings"
)

type Product struct {
	UID          string `json:"id"`
	Name         string `json:"name"`
	ImageURL     string `json:"image_url,omitempty"`
	PriceInPence int64  `json:"price_in_pence"`
	Currency     string `json:"currency"`
}

func (p Product) HasImage() bool {
	return strings.TrimSpace(p.ImageURL) != ""
}

// FormattedPrice renders the price the way the storefront does: £12.50
func (p Product) FormattedPrice() string {
	return FormatPence(p.PriceInPence)
}

func FormatPence(pence int64) string {
	sign := ""
	if pence < 0 {
		sign = "-"
		pence = -pence
	}
	return fmt.Sprintf("%s£%d.%02d", sign, pence/100, pence%100)
}

func validateProduct(p Product) error {
	if p.UID == "" {
		return fmt.Errorf("missing id")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("missing name")
	}
	if p.PriceInPence < 0 {
		return fmt.Errorf("negative price")
	}
	if p.Currency != "" && p.Currency != "GBP" {
		return fmt.Errorf("unsupported currency %s", p.Currency)
	}
	return nil
}
