package node

import "slices"

// reconcile rearranges current so that it matches desired position by
// position. A port found by name among the not yet placed ports is kept
// when adopt accepts it; adopt is responsible for resetting a data port
// whose type changed. Ports of the wrong kind are replaced, missing ones are
// created, and ports past the desired length are disconnected and dropped.
func reconcile[P Port](current []P, desired []Descriptor, adopt func(P, Descriptor) bool, create func(Descriptor) P) []P {
	for i, d := range desired {
		j := -1
		for k := i; k < len(current); k++ {
			if current[k].Name() == d.Name {
				j = k
				break
			}
		}

		if j < 0 {
			current = slices.Insert(current, i, create(d))
			continue
		}

		if !adopt(current[j], d) {
			current[j].Disconnect()
			current[j] = create(d)
		}
		if j != i {
			current[i], current[j] = current[j], current[i]
		}
	}

	if len(current) > len(desired) {
		for _, p := range current[len(desired):] {
			p.Disconnect()
		}
		clear(current[len(desired):])
		current = current[:len(desired)]
	}
	return current
}
