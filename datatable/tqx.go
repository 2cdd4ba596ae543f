package datatable

import (
	"net/url"
	"strings"
)

// TQX holds the request parameters a visualization query sends in its
// "tqx" query string argument, e.g. "reqId:3;out:json".
type TQX struct {
	ReqID           string
	Out             string
	ResponseHandler string
}

// ParseTQX parses a raw tqx value. Unknown keys are ignored. A missing reqId
// defaults to "0".
func ParseTQX(raw string) TQX {
	t := TQX{ReqID: "0"}
	for _, part := range strings.Split(raw, ";") {
		key, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "reqId":
			if v := strings.TrimSpace(value); v != "" {
				t.ReqID = v
			}
		case "out":
			t.Out = strings.TrimSpace(value)
		case "responseHandler":
			t.ResponseHandler = strings.TrimSpace(value)
		}
	}
	return t
}

// String renders the parameters back to their tqx form.
func (t TQX) String() string {
	parts := []string{"reqId:" + t.ReqID}
	if t.Out != "" {
		parts = append(parts, "out:"+t.Out)
	}
	if t.ResponseHandler != "" {
		parts = append(parts, "responseHandler:"+t.ResponseHandler)
	}
	return strings.Join(parts, ";")
}

// WithTQX returns rawURL with its tqx argument set to t. Other query
// arguments are preserved.
func WithTQX(rawURL string, t TQX) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("tqx", t.String())
	u.RawQuery = q.Encode()
	return u.String(), nil
}
