package scenario

import "encoding/json"

// Scenario is one improv prompt from the catalog. Fields beyond the typed
// core (id, prompt, hint) are carried verbatim in Extra so catalog authors
// can attach whatever metadata they like without a schema change here.
type Scenario struct {
	ID     string
	Prompt string
	Hint   string
	Extra  map[string]any
}

// Fallback returns the fixed scenario served when the catalog is empty.
func Fallback() Scenario {
	return Scenario{ID: "fallback", Prompt: "You are in a small cafe. React to the scene.", Hint: ""}
}

// Clone returns an independent deep copy. Callers may mutate the result
// freely without affecting catalog or session state.
func (s Scenario) Clone() Scenario {
	out := s
	if s.Extra != nil {
		out.Extra = make(map[string]any, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = copyValue(v)
		}
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = copyValue(e)
		}
		return m
	case []any:
		l := make([]any, len(t))
		for i, e := range t {
			l[i] = copyValue(e)
		}
		return l
	default:
		return v
	}
}

// MarshalJSON flattens Extra back alongside the core fields so a scenario
// round-trips through JSON the same shape it was loaded from.
func (s Scenario) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(s.Extra)+3)
	for k, v := range s.Extra {
		m[k] = v
	}
	m["id"] = s.ID
	m["prompt"] = s.Prompt
	m["hint"] = s.Hint
	return json.Marshal(m)
}

func (s *Scenario) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if v, ok := m["id"].(string); ok {
		s.ID = v
	}
	if v, ok := m["prompt"].(string); ok {
		s.Prompt = v
	}
	if v, ok := m["hint"].(string); ok {
		s.Hint = v
	}
	delete(m, "id")
	delete(m, "prompt")
	delete(m, "hint")
	if len(m) > 0 {
		s.Extra = m
	} else {
		s.Extra = nil
	}
	return nil
}
