package inventory

import "sort"

// ComputeDelta devuelve next[p] - prev[p] para cada producto en que ambos mapas difieren.
// Un producto ausente en un lado cuenta como 0; los deltas nulos se omiten, así
// las filas de stock no afectadas nunca se tocan.
func ComputeDelta(prev, next map[string]int) map[string]int {
	delta := make(map[string]int)
	for pid, q := range next {
		if d := q - prev[pid]; d != 0 {
			delta[pid] = d
		}
	}
	for pid, q := range prev {
		if _, ok := next[pid]; !ok && q != 0 {
			delta[pid] = -q
		}
	}
	return delta
}

// SortedKeys devuelve las claves del mapa en orden ascendente.
func SortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
