// Package checkout turns the cart into the order message handed off to
// WhatsApp. It is the terminal action of a session: validate, format, link.
package checkout

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"Storefront/internal/cart"
	"Storefront/internal/catalog"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrMissingCompanyName  = errors.New("company name required")
	ErrMissingCompanyTaxID = errors.New("company tax id required")
)

// Order is a validated, ready-to-format snapshot of the cart plus the
// submitter fields.
type Order struct {
	Lines        []cart.Line
	TotalCents   int64
	CompanyName  string
	CompanyTaxID string
}

// NewOrder validates the hand-off preconditions: a non-empty cart and both
// company fields present after trimming.
func NewOrder(lines []cart.Line, totalCents int64, companyName, companyTaxID string) (Order, error) {
	if len(lines) == 0 {
		return Order{}, ErrEmptyCart
	}

	companyName = strings.TrimSpace(companyName)
	companyTaxID = strings.TrimSpace(companyTaxID)
	if companyName == "" {
		return Order{}, ErrMissingCompanyName
	}
	if companyTaxID == "" {
		return Order{}, ErrMissingCompanyTaxID
	}

	return Order{
		Lines:        lines,
		TotalCents:   totalCents,
		CompanyName:  companyName,
		CompanyTaxID: companyTaxID,
	}, nil
}

// Message renders the itemized order text sent to the store.
func (o Order) Message(storeName string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "¡Hola! Quisiera realizar el siguiente pedido a %s:\n\n", storeName)
	for _, ln := range o.Lines {
		subtotal := ln.PriceCents * int64(ln.Quantity)
		fmt.Fprintf(&b, "- %s (x%d) - $%s\n", ln.Name, ln.Quantity, catalog.FormatPrice(subtotal))
	}
	fmt.Fprintf(&b, "\nTotal del Pedido: $%s\n", catalog.FormatPrice(o.TotalCents))
	b.WriteString("\nDatos de la Empresa:\n")
	fmt.Fprintf(&b, "Nombre: %s\n", o.CompanyName)
	fmt.Fprintf(&b, "RIF: %s\n\n", o.CompanyTaxID)
	b.WriteString("¡Espero su confirmación!")

	return b.String()
}

// WhatsAppURL builds the wa.me deep link with the message percent-encoded.
// Spaces are %20, not +, so messaging clients decode them uniformly.
func WhatsAppURL(number, message string) string {
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + number + "?text=" + text
}
