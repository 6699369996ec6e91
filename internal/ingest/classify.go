package ingest

// CategoryJSON is the partition every JSON-mode drop lands in.
const CategoryJSON = "json"

// CategoryUnknown is the catch-all partition for unrecognized file kinds.
// Unknown kinds are accepted, never rejected; no payload is dropped for
// classification reasons.
const CategoryUnknown = "unknown"

// categoryByKind is the closed classification table for file-mode drops.
// Exact match only; extending it means redeploying.
var categoryByKind = map[string]string{
	"orders/import-new-tsv": "orders_new",
	"orders/report-all-tsv": "orders_all",
	"ads/spend-tsv":         "ads_spend",
}

// ResolveCategory maps a file-mode kind to its storage category.
func ResolveCategory(kind string) string {
	if category, ok := categoryByKind[kind]; ok {
		return category
	}
	return CategoryUnknown
}
