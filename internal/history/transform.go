package history

import (
	"fmt"
	"time"
)

// KeyMapping copies column From of a result row into column To.
type KeyMapping struct {
	From string
	To   string
}

// Transform merges result rows sharing the same time into one row per time,
// keeping only the mapped columns plus "ts" (the time in epoch milliseconds).
// When several rows of a group carry the same column the first one wins.
// Groups keep the order in which their time was first seen.
func Transform(rows []Row, mappings []KeyMapping) []Row {
	all := make([]KeyMapping, 0, len(mappings)+1)
	all = append(all, mappings...)
	all = append(all, KeyMapping{From: "time", To: "ts"})

	var order []string
	groups := make(map[string]Row)

	for _, row := range rows {
		key := fmt.Sprint(row["time"])
		out, ok := groups[key]
		if !ok {
			out = Row{}
			groups[key] = out
			order = append(order, key)
		}
		for _, m := range all {
			v, ok := row[m.From]
			if !ok {
				continue
			}
			if _, taken := out[m.To]; taken {
				continue
			}
			if t, isTime := v.(time.Time); isTime && m.From == "time" {
				v = t.UnixMilli()
			}
			out[m.To] = v
		}
	}

	result := make([]Row, 0, len(order))
	for _, key := range order {
		result = append(result, groups[key])
	}
	return result
}
