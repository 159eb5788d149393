package neural

import "slices"

// Prune removes connections that cannot influence an action: links from
// unreachable sources and targets that lead nowhere. The layered stages are
// swept forward from the sensors the genome references, then backward from
// the actions. Lateral links may form cycles and are resolved to a fixpoint
// in both directions. Direct links bypass the layers and only need a live
// sensor. Prune is idempotent.
func (n *Network) Prune() {
	live := make([]bool, n.numSensors)
	for _, s := range []Stage{n.SensorInner, n.Direct} {
		for _, t := range s {
			for _, l := range t.Links {
				live[l.Source] = true
			}
		}
	}
	isLive := func(id int) bool { return live[id] }

	// Forward: sensor -> inner
	reached := make([]bool, n.numInner)
	n.SensorInner = n.SensorInner.keepLinks(isLive)
	for _, t := range n.SensorInner {
		reached[t.ID] = true
	}

	// Forward: lateral, until no new inner neuron is reached
	for changed := true; changed; {
		changed = false
		for _, t := range n.Lateral {
			if reached[t.ID] {
				continue
			}
			for _, l := range t.Links {
				if reached[l.Source] {
					reached[t.ID] = true
					changed = true
					break
				}
			}
		}
	}
	isReached := func(id int) bool { return reached[id] }
	n.Lateral = n.Lateral.keepLinks(isReached)

	// Forward: inner -> action
	n.InnerAction = n.InnerAction.keepLinks(isReached)

	// Backward: inner neurons an action depends on
	needed := make([]bool, n.numInner)
	for _, t := range n.InnerAction {
		for _, l := range t.Links {
			needed[l.Source] = true
		}
	}
	for changed := true; changed; {
		changed = false
		for _, t := range n.Lateral {
			if !needed[t.ID] {
				continue
			}
			for _, l := range t.Links {
				if !needed[l.Source] {
					needed[l.Source] = true
					changed = true
				}
			}
		}
	}
	isNeeded := func(id int) bool { return needed[id] }
	n.Lateral = n.Lateral.keepTargets(isNeeded)
	n.SensorInner = n.SensorInner.keepTargets(isNeeded)

	n.Direct = n.Direct.keepLinks(isLive)

	n.collectEndpoints()
}

// collectEndpoints rebuilds the used sensor and driven action lists.
func (n *Network) collectEndpoints() {
	var sensors [NumSensors]bool
	var actions [NumActions]bool
	for _, t := range n.SensorInner {
		for _, l := range t.Links {
			sensors[l.Source] = true
		}
	}
	for _, t := range n.Direct {
		actions[t.ID] = true
		for _, l := range t.Links {
			sensors[l.Source] = true
		}
	}
	for _, t := range n.InnerAction {
		actions[t.ID] = true
	}

	n.used = n.used[:0]
	for id, ok := range sensors {
		if ok {
			n.used = append(n.used, Sensor(id))
		}
	}
	n.actions = n.actions[:0]
	for id, ok := range actions {
		if ok {
			n.actions = append(n.actions, Action(id))
		}
	}
}

// keepLinks drops links whose source fails keep, then targets left without
// links.
func (s Stage) keepLinks(keep func(int) bool) Stage {
	out := make(Stage, 0, len(s))
	for _, t := range s {
		links := slices.DeleteFunc(slices.Clone(t.Links), func(l Link) bool { return !keep(l.Source) })
		if len(links) > 0 {
			out = append(out, Target{ID: t.ID, Links: links})
		}
	}
	return out
}

// keepTargets drops targets that fail keep.
func (s Stage) keepTargets(keep func(int) bool) Stage {
	out := make(Stage, 0, len(s))
	for _, t := range s {
		if keep(t.ID) {
			out = append(out, t)
		}
	}
	return out
}
