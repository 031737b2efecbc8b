// Package i18n translates the user facing texts of the login pages.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// dutch holds the Dutch translation of every known English text.
var dutch = map[string]string{ //nolint:gochecknoglobals
	"The user denied the request":                        "De gebruiker heeft het verzoek geweigerd",
	"Webmaster disabled creation of new accounts":        "De webmaster heeft het aanmaken van nieuwe accounts uitgeschakeld",
	"Invalid or expired login attempt, please try again": "Ongeldige of verlopen inlogpoging, probeer het opnieuw",
	"Login failed, please try again":                     "Inloggen mislukt, probeer het opnieuw",
	"Login with Scouts Online":                           "Inloggen met Scouts Online",
	"Error":                                              "Fout",
	"Login":                                              "Inloggen",
	"Logout":                                             "Uitloggen",
	"Welcome":                                            "Welkom",
	"Scouting ID":                                        "Scouting ID",
	"Birthdate":                                          "Geboortedatum",
	"Gender":                                             "Geslacht",
	"Email":                                              "E-mail",
	"Male":                                               "Man",
	"Female":                                             "Vrouw",
	"Other":                                              "Anders",
	"Unknown":                                            "Onbekend",
	"Dashboard":                                          "Overzicht",
}

var (
	supported = []language.Tag{language.English, language.Dutch} //nolint:gochecknoglobals
	matcher   = language.NewMatcher(supported)                   //nolint:gochecknoglobals
	messages  = newCatalog()                                     //nolint:gochecknoglobals
)

func newCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))

	for en, nl := range dutch {
		_ = b.SetString(language.English, en, en)
		_ = b.SetString(language.Dutch, en, nl)
	}

	return b
}

// Printer translates known texts into one language.
type Printer struct {
	tag     language.Tag
	printer *message.Printer
}

// New returns a printer for tag, falling back to English for unsupported languages.
func New(tag language.Tag) *Printer {
	_, idx, _ := matcher.Match(tag)
	tag = supported[idx]

	return &Printer{tag: tag, printer: message.NewPrinter(tag, message.Catalog(messages))}
}

// FromAcceptLanguage returns a printer for the best match of an Accept-Language header.
func FromAcceptLanguage(header string) *Printer {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return New(language.English)
	}

	_, idx, _ := matcher.Match(tags...)

	return New(supported[idx])
}

// Translate returns the translation of msg. Texts without translation, like verbatim
// provider hints, are returned unchanged and never interpreted as format strings.
func (p *Printer) Translate(msg string) string {
	if _, ok := dutch[msg]; !ok {
		return msg
	}

	return p.printer.Sprintf(msg)
}

// Lang returns the language code for the html lang attribute.
func (p *Printer) Lang() string {
	base, _ := p.tag.Base()
	return base.String()
}
