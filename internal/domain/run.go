package domain

import "time"

// RunSummary reports what one run observed and changed.
type RunSummary struct {
	Started  time.Time     `json:"started"`
	Finished time.Time     `json:"finished"`
	Duration time.Duration `json:"duration"`
	RunDate  Date          `json:"run_date"`

	Servers  int `json:"servers"`
	Queried  int `json:"queried"`
	Errors   int `json:"errors"`
	Snapshot int `json:"snapshot"`

	Reconcile ReconcileStats `json:"reconcile"`
	// InventoryUpdated is false when the run observed no layer at all and the
	// inventory was left untouched.
	InventoryUpdated bool `json:"inventory_updated"`

	Disabled         []Pair `json:"disabled"`
	DirectoryChanged bool   `json:"directory_changed"`

	Inventory int `json:"inventory"`
	Events    int `json:"events"`
}

// InventoryCounts splits an inventory by availability state.
type InventoryCounts struct {
	Available int `json:"available"`
	Missing   int `json:"missing"`
	Removed   int `json:"removed"`
}

// Counts classifies every layer: available when a service listed it,
// removed when it carries a removal date, missing otherwise.
func (inv Inventory) Counts() InventoryCounts {
	var c InventoryCounts
	for _, l := range inv {
		switch {
		case l.Available():
			c.Available++
		case l.RemovedOn != nil:
			c.Removed++
		default:
			c.Missing++
		}
	}
	return c
}
