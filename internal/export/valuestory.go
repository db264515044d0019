package export

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/BerylCAtieno/storycraft-agent/internal/logger"
)

// Passthrough forwards an arbitrary JSON object to the legacy value-story
// script as a URL-encoded form and relays its reply.
type Passthrough struct {
	exp *Exporter
}

func NewPassthrough(log *logger.Logger, scriptURL string, timeout time.Duration) *Passthrough {
	return &Passthrough{exp: NewExporter(log.With("route", "value-story"), scriptURL, timeout)}
}

func (p *Passthrough) Configured() bool { return p.exp.Configured() }

// Forward returns the script's JSON reply unchanged. A non-JSON reply is
// wrapped as {status:"error", message:"Non-JSON response", raw}.
func (p *Passthrough) Forward(ctx context.Context, payload map[string]any) (map[string]any, error) {
	if !p.Configured() {
		return nil, ErrNotConfigured
	}
	form := EncodeForm(payload)

	status, body, err := p.exp.post(ctx, p.exp.scriptURL, form)
	if err != nil {
		return nil, err
	}
	p.exp.log.Debug("value story reply", "status", status, "bytes", len(body))

	var out map[string]any
	if err := json.Unmarshal([]byte(body), &out); err != nil || out == nil {
		return map[string]any{"status": "error", "message": "Non-JSON response", "raw": body}, nil
	}
	return out, nil
}

// EncodeForm flattens a JSON object into form values. Nulls become empty
// strings; nested values are sent as JSON text.
func EncodeForm(payload map[string]any) url.Values {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	form := url.Values{}
	for _, k := range keys {
		form.Add(k, formValue(payload[k]))
	}
	return form
}

func formValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case map[string]any, []any:
		raw, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(raw)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
