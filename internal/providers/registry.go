// Package providers wires the individual metadata source clients into the
// set the enrichment service runs against.
package providers

import (
	"github.com/spf13/viper"

	"github.com/tkarvine/bibliofile/internal/bookmeta"
	"github.com/tkarvine/bibliofile/internal/config"
	"github.com/tkarvine/bibliofile/internal/providers/googlebooks"
	"github.com/tkarvine/bibliofile/internal/providers/imslp"
	"github.com/tkarvine/bibliofile/internal/providers/openlibrary"
)

// DefaultClients returns all configured provider clients in the default
// precedence order. Providers disabled in configuration are skipped.
func DefaultClients() []bookmeta.ProviderClient {
	var clients []bookmeta.ProviderClient

	if providerEnabled("googlebooks") {
		clients = append(clients, googlebooks.NewClient(config.GoogleBooksAPIKey))
	}
	if providerEnabled("openlibrary") {
		clients = append(clients, openlibrary.NewClient())
	}
	if providerEnabled("imslp") {
		clients = append(clients, imslp.NewClient())
	}

	return clients
}

// Precedence returns the configured merge precedence, falling back to the
// built-in default for unknown or missing entries.
func Precedence() []bookmeta.Provider {
	configured := viper.GetStringSlice("providers.precedence")
	if len(configured) == 0 {
		return bookmeta.DefaultPrecedence
	}

	known := map[string]bookmeta.Provider{
		string(bookmeta.ProviderGoogleBooks): bookmeta.ProviderGoogleBooks,
		string(bookmeta.ProviderOpenLibrary): bookmeta.ProviderOpenLibrary,
		string(bookmeta.ProviderIMSLP):       bookmeta.ProviderIMSLP,
	}

	var order []bookmeta.Provider
	for _, name := range configured {
		if p, ok := known[name]; ok {
			order = append(order, p)
		}
	}
	if len(order) == 0 {
		return bookmeta.DefaultPrecedence
	}
	return order
}

func providerEnabled(name string) bool {
	key := "providers." + name + ".enabled"
	if !viper.IsSet(key) {
		return true
	}
	return viper.GetBool(key)
}
