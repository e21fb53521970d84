package normalize

// Shape tags how a collection field arrived from a backend.
type Shape int

const (
	Absent Shape = iota
	Single
	List
)

func (s Shape) String() string {
	switch s {
	case Single:
		return "single"
	case List:
		return "list"
	default:
		return "absent"
	}
}

// Collection classifies v and returns its object entries. Non-object list members are skipped.
func Collection(v any) (Shape, []map[string]any) {
	switch x := v.(type) {
	case map[string]any:
		if len(x) == 0 {
			return Absent, nil
		}
		return Single, []map[string]any{x}
	case []map[string]any:
		return List, x
	case []any:
		out := make([]map[string]any, 0, len(x))
		for _, item := range x {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return List, out
	default:
		return Absent, nil
	}
}
