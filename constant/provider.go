package constant

// Provider identifiers. These are the ids callers pass back when resolving sources.
const (
	ProviderMeta    = "meta"
	ProviderLegacy  = "legacy"
	ProviderSession = "session"
	ProviderDirect  = "direct"
)
