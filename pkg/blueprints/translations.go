package blueprints

import (
	i18n "github.com/goliatone/go-i18n"
)

const (
	KeyCreatedHeading = "blueprints.createdBlueprintHeading"
	KeyCreatedMessage = "blueprints.createdBlueprintMessage"
)

// Translations returns the default catalog for blueprint notifications.
func Translations() i18n.Translations {
	return i18n.Translations{
		"en": newCatalog("en", map[string]string{
			KeyCreatedHeading: "Blueprint created",
			KeyCreatedMessage: `A blueprint was created from "%s"`,
		}),
		"es": newCatalog("es", map[string]string{
			KeyCreatedHeading: "Plantilla creada",
			KeyCreatedMessage: `Se creó una plantilla a partir de "%s"`,
		}),
	}
}

func newCatalog(locale string, entries map[string]string) *i18n.TranslationCatalog {
	catalog := &i18n.TranslationCatalog{
		Locale:   i18n.Locale{Code: locale},
		Messages: make(map[string]i18n.Message),
	}
	for key, template := range entries {
		msg := i18n.Message{}
		msg.SetContent(template)
		catalog.Messages[key] = msg
	}
	return catalog
}
