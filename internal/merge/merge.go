// Package merge implements the partial-update primitive every store uses.
//
// Patches are decoded JSON (map[string]any). The rules are fixed: a key
// absent from the patch leaves the base value untouched; an explicit null
// clears it; arrays and scalars replace wholesale; a nested map merges
// recursively when the base also holds a map at that key. Any divergence
// from these rules silently corrupts partially-specified updates, e.g. a
// patch touching only one nested field must not erase its siblings.
package merge

// Merge deep-merges patch into base and returns a new map. Neither input
// is mutated.
func Merge(base, patch map[string]any) map[string]any {
	result := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		result[k] = v
	}

	for k, pv := range patch {
		if pv == nil {
			// Explicit null assignment.
			result[k] = nil
			continue
		}

		pm, patchIsMap := pv.(map[string]any)
		if !patchIsMap {
			// Arrays and scalars replace wholesale.
			result[k] = pv
			continue
		}

		bm, baseIsMap := result[k].(map[string]any)
		if !baseIsMap {
			// Base holds a non-object here; the patch object replaces it.
			// Copy so later merges cannot alias the caller's map.
			result[k] = Merge(nil, pm)
			continue
		}

		result[k] = Merge(bm, pm)
	}

	return result
}
