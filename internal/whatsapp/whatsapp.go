// Package whatsapp renders the order summary sent to the seller and the
// wa.me deep link that pre-fills it.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

const DefaultPhone = "5519981917697"

const defaultMessage = `Olá! Gostaria de fazer um pedido pelo site.

Meu nome: {{.Customer.Name}}

Meu pedido:
{{range $i, $l := .Items}}{{if $i}}
{{end}}- {{$l.Quantity}} {{$l.Unit}} de {{$l.Name}}{{end}}

Valor Total: {{price .Total}}

Aguardo as instruções para pagamento e entrega. Obrigado!`

// FormatPrice renders a Brazilian real amount, e.g. "R$ 12,50".
// Rounding to two digits happens only here.
func FormatPrice(d decimal.Decimal) string {
	return "R$ " + strings.Replace(d.StringFixed(2), ".", ",", 1)
}

type Builder struct {
	phone string
	tmpl  *template.Template
}

// NewBuilder parses the message template once. An empty phone falls back to DefaultPhone.
func NewBuilder(phone string) (*Builder, error) {
	return NewBuilderWithTemplate(phone, defaultMessage)
}

func NewBuilderWithTemplate(phone, text string) (*Builder, error) {
	if phone == "" {
		phone = DefaultPhone
	}
	tmpl, err := template.New("order").
		Funcs(template.FuncMap{"price": FormatPrice}).
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse message template: %w", err)
	}
	return &Builder{phone: digitsOnly(phone), tmpl: tmpl}, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Build returns the summary message and the link embedding it.
func (b *Builder) Build(o domain.Order) (string, string, error) {
	var sb strings.Builder
	if err := b.tmpl.Execute(&sb, o); err != nil {
		return "", "", fmt.Errorf("render message: %w", err)
	}
	msg := sb.String()
	return msg, b.Link(msg), nil
}

// Link escapes spaces as %20 rather than "+", which WhatsApp shows literally.
func (b *Builder) Link(message string) string {
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + b.phone + "?text=" + text
}
