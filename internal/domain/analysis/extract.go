package analysis

import "regexp"

var (
	jsonFence = regexp.MustCompile("(?s)```json\n(.*?)\n```")
	anyFence  = regexp.MustCompile("(?s)```\n(.*?)\n```")
)

// Extract pulls the analysis document out of free model text. A block fenced
// as json wins over an untagged fence; without fences the whole text is parsed.
// On failure the error carries text unchanged.
func Extract(text string) (Result, error) {
	candidate := text
	if m := jsonFence.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	} else if m := anyFence.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	}

	res, err := NewResult([]byte(candidate))
	if err != nil {
		return Result{}, &MalformedResponseError{RawText: text, Err: err}
	}
	return res, nil
}
