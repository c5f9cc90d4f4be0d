package clicks

// Event is one recorded product click. ID is the creation time in unix
// milliseconds; Timestamp is the same instant in RFC 3339. Extra holds
// caller-supplied fields that did not map onto a standard one.
type Event struct {
	ID          int64          `json:"id"`
	ProductID   int            `json:"product_id"`
	ProductName string         `json:"product_name"`
	Commission  float64        `json:"commission"`
	Timestamp   string         `json:"timestamp"`
	UserAgent   string         `json:"user_agent,omitempty"`
	Referrer    string         `json:"referrer,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// applyExtras merges caller-supplied fields into the event. Keys naming a
// standard field overwrite it; everything else lands in Extra.
func (e *Event) applyExtras(extra map[string]any) {
	for k, v := range extra {
		switch k {
		case "id":
			if n, ok := asInt64(v); ok {
				e.ID = n
			}
		case "product_id":
			if n, ok := asInt64(v); ok {
				e.ProductID = int(n)
			}
		case "product_name":
			if s, ok := v.(string); ok {
				e.ProductName = s
			}
		case "commission":
			if f, ok := asFloat64(v); ok {
				e.Commission = f
			}
		case "timestamp":
			if s, ok := v.(string); ok {
				e.Timestamp = s
			}
		case "user_agent":
			if s, ok := v.(string); ok {
				e.UserAgent = s
			}
		case "referrer":
			if s, ok := v.(string); ok {
				e.Referrer = s
			}
		default:
			if e.Extra == nil {
				e.Extra = map[string]any{}
			}
			e.Extra[k] = v
		}
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
