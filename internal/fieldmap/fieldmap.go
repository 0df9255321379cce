// Package fieldmap translates the short identifiers used by callers into
// the canonical values stored in the search index. The index was seeded
// with display names ("Cluster Prod AKS 1") while the UI submits short ids
// ("cluster1"), so every query runs through this mapping first.
package fieldmap

import (
	"strings"

	"github.com/logops-io/logops/internal/domain"
)

// clusterNames maps short cluster ids to the stored display names
var clusterNames = map[string]string{
	"cluster1": "Cluster Prod AKS 1",
	"cluster2": "Cluster Prod AKS 2",
	"cluster3": "Cluster Prod AKS 3",
	"cluster4": "Cluster Prod AKS 4",
}

// bundleNames maps lower-cased bundle ids to their stored casing
var bundleNames = map[string]string{
	"bulkdeviceenrollment":            "Bulkdeviceenrollment",
	"bulkordervalidation":             "Bulkordervalidation",
	"iotsubscription":                 "IOTSubscription",
	"mobilitysubscription":            "MobilitySubscription",
	"mobilitypromotiontreatmentrules": "MobilityPromotionTreatmentRules",
	"mobilitydevicetreatmentrules":    "MobilityDeviceTreatmentRules",
	"businessrules":                   "BusinessRules",
	"customermanagement":              "CustomerManagement",
	"inventorytracking":               "InventoryTracking",
	"devicemanagement":                "DeviceManagement",
	"networkmonitoring":               "NetworkMonitoring",
}

// Normalizer applies the static caller-to-store vocabulary mapping
type Normalizer struct{}

// New creates a Normalizer
func New() *Normalizer {
	return &Normalizer{}
}

// Normalize returns a copy of f with cluster, bundle, and pod rewritten to
// the store's canonical values. Unknown inputs pass through unchanged, so
// the operation is idempotent.
func (n *Normalizer) Normalize(f domain.Filter) domain.Filter {
	if mapped, ok := clusterNames[f.Cluster]; ok {
		f.Cluster = mapped
	}
	if mapped, ok := bundleNames[strings.ToLower(f.Bundle)]; ok {
		f.Bundle = mapped
	}
	f.Pod = strings.ToLower(f.Pod)
	return f
}

// Candidates returns the ordered list of filters to try against the store:
// the normalized filter first, then the literal one when it differs. The
// index may have been seeded with either vocabulary, so both are searched
// in sequence.
func (n *Normalizer) Candidates(f domain.Filter) []domain.Filter {
	mapped := n.Normalize(f)
	if mapped == f {
		return []domain.Filter{mapped}
	}
	return []domain.Filter{mapped, f}
}
