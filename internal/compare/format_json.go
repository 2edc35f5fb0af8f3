package compare

import (
	"encoding/json"
	"fmt"
)

// JSONFormatter renders a comparison set as JSON.
type JSONFormatter struct {
	Pretty bool

	// OnlyAvailable drops alternatives that were rejected for this request.
	OnlyAvailable bool
}

// Format renders compSet. The set itself is not modified.
func (jf *JSONFormatter) Format(compSet *ComparisonSet) (string, error) {
	out := compSet
	if jf.OnlyAvailable {
		filtered := *compSet
		filtered.AlternativeResults = make([]MenuOption, 0, len(compSet.AlternativeResults))
		for _, alt := range compSet.AlternativeResults {
			if alt.Available() {
				filtered.AlternativeResults = append(filtered.AlternativeResults, alt)
			}
		}
		out = &filtered
	}

	var (
		data []byte
		err  error
	)
	if jf.Pretty {
		data, err = json.MarshalIndent(out, "", "  ")
	} else {
		data, err = json.Marshal(out)
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal comparison %q: %w", compSet.Name, err)
	}
	return string(data), nil
}
