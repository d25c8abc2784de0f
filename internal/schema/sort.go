package schema

// Sort orders tables so that every table comes after the tables it
// references: parents load first, so a child's rows never point at a
// truncated-but-unloaded parent.
//
// Dependencies on tables outside the input set are ignored. When a cycle
// blocks progress, the first remaining table in declaration order is placed
// next; the target is expected to accept deferred constraint checking for
// those rows.
func Sort(tables []*Table) []*Table {
	known := make(map[string]bool, len(tables))
	for _, t := range tables {
		known[t.Name] = true
	}

	var sorted []*Table
	processed := make(map[string]bool, len(tables))

	for len(sorted) < len(tables) {
		added := false

		for _, t := range tables {
			if processed[t.Name] {
				continue
			}
			ready := true
			for _, dep := range t.Dependencies {
				if known[dep] && !processed[dep] {
					ready = false
					break
				}
			}
			if ready {
				sorted = append(sorted, t)
				processed[t.Name] = true
				added = true
			}
		}

		if !added {
			// Cycle: fall back to declaration order for the remainder.
			for _, t := range tables {
				if !processed[t.Name] {
					sorted = append(sorted, t)
					processed[t.Name] = true
					break
				}
			}
		}
	}

	return sorted
}
