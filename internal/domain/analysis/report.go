package analysis

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Report is a forgiving view over a Result. Missing arrays become empty,
// missing numbers stay nil and values of the wrong type are coerced where a
// reasonable reading exists.
type Report struct {
	Metadata Metadata
	Pipeline []Step
}

type Metadata struct {
	Engine       string
	TimestampUTC string
}

// Step is one hypothesized editing operation. StepOrder is 0 when the model
// omitted it.
type Step struct {
	StepOrder  int
	Category   string
	Name       string
	Software   []string
	Parameters []Parameter
	Confidence *float64
}

// Parameter keeps the model's key order and the raw JSON value.
type Parameter struct {
	Name  string
	Value json.RawMessage
}

// Text renders strings verbatim and any other value as its JSON text.
func (p Parameter) Text() string {
	var s string
	if raw := bytes.TrimSpace(p.Value); len(raw) > 0 && raw[0] == '"' && json.Unmarshal(raw, &s) == nil {
		return s
	}
	var buf bytes.Buffer
	if json.Compact(&buf, p.Value) != nil {
		return string(p.Value)
	}
	return buf.String()
}

type wireResult struct {
	Metadata json.RawMessage `json:"analysis_metadata"`
	Pipeline json.RawMessage `json:"hypothesized_pipeline"`
}

type wireMetadata struct {
	Engine       json.RawMessage `json:"analysis_engine"`
	TimestampUTC json.RawMessage `json:"timestamp_utc"`
}

type wireStep struct {
	StepOrder  json.RawMessage `json:"step_order"`
	Category   json.RawMessage `json:"effect_category"`
	Name       json.RawMessage `json:"effect_name"`
	Software   json.RawMessage `json:"software_guess"`
	Parameters json.RawMessage `json:"estimated_parameters"`
	Confidence json.RawMessage `json:"confidence"`
}

// Report derives the defaulted view. It never fails.
func (r Result) Report() Report {
	out := Report{Pipeline: []Step{}}
	var w wireResult
	if json.Unmarshal(r.raw, &w) != nil {
		return out
	}

	var md wireMetadata
	if json.Unmarshal(w.Metadata, &md) == nil {
		out.Metadata = Metadata{Engine: stringOf(md.Engine), TimestampUTC: stringOf(md.TimestampUTC)}
	}

	var items []json.RawMessage
	if json.Unmarshal(w.Pipeline, &items) != nil {
		return out
	}
	for _, item := range items {
		var ws wireStep
		// non-object entries keep their slot so positions stay meaningful
		_ = json.Unmarshal(item, &ws)
		step := Step{
			Category:   stringOf(ws.Category),
			Name:       stringOf(ws.Name),
			Software:   stringsOf(ws.Software),
			Parameters: parametersOf(ws.Parameters),
			Confidence: numberOf(ws.Confidence),
		}
		if n := numberOf(ws.StepOrder); n != nil {
			step.StepOrder = int(math.Round(*n))
		}
		out.Pipeline = append(out.Pipeline, step)
	}
	return out
}

func stringOf(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

func stringsOf(raw json.RawMessage) []string {
	out := []string{}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) == nil {
		for _, it := range items {
			if s := stringOf(it); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if s := stringOf(raw); s != "" && !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		out = append(out, s)
	}
	return out
}

func numberOf(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var f float64
	if json.Unmarshal(raw, &f) == nil {
		return &f
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &v
		}
	}
	return nil
}

func parametersOf(raw json.RawMessage) []Parameter {
	out := []Parameter{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil || tok != json.Delim('{') {
		return out
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return out
		}
		key, _ := keyTok.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return out
		}
		out = append(out, Parameter{Name: key, Value: v})
	}
	return out
}
