package domain

// ReconcileStats counts how each key of a reconciliation was classified.
type ReconcileStats struct {
	// Added are new keys on servers already present in the inventory (dated today).
	Added int `json:"added"`
	// AddedUndated are new keys on servers never seen before (first_seen left null).
	AddedUndated int `json:"added_undated"`
	Present      int `json:"present"`
	// Reappeared are present keys that carried a removal date.
	Reappeared int `json:"reappeared"`
	Missing    int `json:"missing"`
	// Removed are missing keys dated as removed by this run.
	Removed int `json:"removed"`
}

// Reconciliation is the result of merging a snapshot into the inventory.
type Reconciliation struct {
	Inventory Inventory
	Stats     ReconcileStats
	// RemovedKeys lists the keys dated as removed by this run.
	RemovedKeys []LayerKey
	// AddedKeys lists every new key, dated or not.
	AddedKeys []LayerKey
}

// Reconcile merges this run's snapshot into the historical inventory and returns a
// new inventory; neither input is modified.
//
// Keys are partitioned into new, present and missing:
//   - new on a known server: snapshot attributes, first_seen = runDate.
//   - new on a server absent from history: snapshot attributes, first_seen = nil,
//     since only the server, not the layer, is new to monitoring.
//   - present: snapshot attributes, first_seen carried from history, removed_on cleared.
//   - missing: both service flags false. removed_on = runDate only when the server
//     logged no error this run and is still in the directory; otherwise removed_on
//     keeps its previous value.
//
// events are the outcome events of this run only.
func Reconcile(snapshot *Snapshot, historical Inventory, events []Event, directory Directory, runDate Date) Reconciliation {
	if snapshot == nil {
		snapshot = NewSnapshot()
	}

	history := historical.Index()
	knownServers := historical.Servers()
	unreachable := ServersWithErrors(events)
	listed := directory.Names()

	added, present, missing := Partition(snapshot.Keys(), KeysOf(history))

	var res Reconciliation
	res.Inventory = make(Inventory, 0, len(added)+len(present)+len(missing))

	for _, k := range added {
		l, _ := snapshot.Get(k)
		l.FirstSeen, l.RemovedOn = nil, nil
		if knownServers.Has(k.Server) {
			l.FirstSeen = runDate.Ptr()
			res.Stats.Added++
		} else {
			res.Stats.AddedUndated++
		}
		res.AddedKeys = append(res.AddedKeys, k)
		res.Inventory = append(res.Inventory, l)
	}

	for _, k := range present {
		l, _ := snapshot.Get(k)
		prev := history[k]
		l.FirstSeen = prev.FirstSeen
		l.RemovedOn = nil
		if prev.RemovedOn != nil {
			res.Stats.Reappeared++
		}
		res.Stats.Present++
		res.Inventory = append(res.Inventory, l)
	}

	for _, k := range missing {
		l := history[k]
		l.WMS, l.WFS = false, false
		if !unreachable.Has(k.Server) && listed.Has(k.Server) {
			l.RemovedOn = runDate.Ptr()
			res.Stats.Removed++
			res.RemovedKeys = append(res.RemovedKeys, k)
		}
		res.Stats.Missing++
		res.Inventory = append(res.Inventory, l)
	}

	res.Inventory.Sort()
	return res
}
