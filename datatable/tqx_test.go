package datatable

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTQX(t *testing.T) {
	tests := []struct {
		raw  string
		want TQX
	}{
		{"", TQX{ReqID: "0"}},
		{"reqId:4", TQX{ReqID: "4"}},
		{"reqId:4;out:csv", TQX{ReqID: "4", Out: "csv"}},
		{"out:json;responseHandler:cb;reqId:9", TQX{ReqID: "9", Out: "json", ResponseHandler: "cb"}},
		{"reqId:;junk", TQX{ReqID: "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTQX(tt.raw))
		})
	}
}

func TestTQXString(t *testing.T) {
	assert.Equal(t, "reqId:1", TQX{ReqID: "1"}.String())
	assert.Equal(t, "reqId:1;out:csv", TQX{ReqID: "1", Out: "csv"}.String())
}

func TestWithTQX_PreservesQuery(t *testing.T) {
	raw, err := WithTQX("http://127.0.0.1:8000/stats/interface/?iface=2", TQX{ReqID: "12"})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/stats/interface/", u.Path)
	assert.Equal(t, "2", u.Query().Get("iface"))
	assert.Equal(t, "reqId:12", u.Query().Get("tqx"))
}

func TestWithTQX_InvalidURL(t *testing.T) {
	_, err := WithTQX("http://[::1", TQX{ReqID: "0"})
	assert.Error(t, err)
}
