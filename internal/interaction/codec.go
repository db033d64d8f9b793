package interaction

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/symbiose/internal/reason"
)

func encodeReasons(reasons []reason.Reason) ([]byte, error) {
	if reasons == nil {
		reasons = []reason.Reason{}
	}
	b, err := json.Marshal(reasons)
	return b, eris.Wrap(err, "interaction: marshal reasons")
}

func decodeReasons(b []byte) ([]reason.Reason, error) {
	reasons := []reason.Reason{}
	if len(b) == 0 {
		return reasons, nil
	}
	if err := json.Unmarshal(b, &reasons); err != nil {
		return nil, eris.Wrap(err, "interaction: unmarshal reasons")
	}
	return reasons, nil
}

// encodeComputed returns nil for a nil computed part so the SQL merge keeps
// the stored value.
func encodeComputed(c *Computed) ([]byte, error) {
	if c == nil {
		return nil, nil
	}
	b, err := json.Marshal(c)
	return b, eris.Wrap(err, "interaction: marshal computed metadata")
}

func decodeComputed(b []byte) (*Computed, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var c Computed
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, eris.Wrap(err, "interaction: unmarshal computed metadata")
	}
	return &c, nil
}

func nullableNote(note string) any {
	if note == "" {
		return nil
	}
	return note
}
