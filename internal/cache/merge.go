package cache

// Merge applies update onto base, key-wise and recursively.
//
// For each key in update: if the key exists in base and both values
// are maps, the maps are merged recursively; otherwise the update
// value replaces the base value outright. Lists are never merged,
// only replaced. The returned map is base, mutated in place.
//
// Merging the same update twice yields the same result as merging it
// once, and keys of base that update does not mention are preserved.
func Merge(base, update map[string]any) map[string]any {
	if base == nil {
		base = make(map[string]any, len(update))
	}
	for key, value := range update {
		if existing, ok := base[key]; ok {
			existingMap, existingIsMap := existing.(map[string]any)
			valueMap, valueIsMap := value.(map[string]any)
			if existingIsMap && valueIsMap {
				base[key] = Merge(existingMap, valueMap)
				continue
			}
		}
		base[key] = value
	}
	return base
}

// DeepCopy returns an independent copy of a JSON-shaped map.
// Nested maps and slices are cloned; scalars are copied by value.
func DeepCopy(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepCopy(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		return v
	}
}
