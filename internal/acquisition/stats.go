package acquisition

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
)

// GetStatsCommand is the command sent to the logging system to request
// interface counters.
const GetStatsCommand = "<x3c_cmd><cmdName>get stats</cmdName></x3c_cmd>"

// Counters is the cumulative statistics vector of one interface.
type Counters struct {
	Interface      string `json:"interface"`
	ByteCount      uint64 `json:"byteCount"`
	BytesDropped   uint64 `json:"bytesDropped"`
	PacketCount    uint64 `json:"packetCount"`
	PacketsDropped uint64 `json:"packetsDropped"`
	ErrorCount     uint64 `json:"errorCount"`
}

type param struct {
	Name  string `xml:"name"`
	Type  string `xml:"type,omitempty"`
	Value string `xml:"value"`
}

type cmdResp struct {
	XMLName xml.Name `xml:"cmd_resp"`
	CmdName string   `xml:"cmd_name"`
	RetVal  int      `xml:"retVal"`
	Reason  string   `xml:"reason"`
	Params  []param  `xml:"param"`
}

// ParseStats parses a <cmd_resp> document into counters keyed by interface
// number.
//
// Params are read in order: an interfaceNumber param starts a new interface
// and the counter params that follow belong to it. Params before the first
// interfaceNumber are ignored.
func ParseStats(data []byte) (map[string]Counters, error) {
	var resp cmdResp
	if err := xml.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("invalid stats response: %w", err)
	}
	if resp.RetVal != 0 {
		return nil, fmt.Errorf("stats command failed with code %d: %s", resp.RetVal, resp.Reason)
	}

	interfaces := make(map[string]Counters)
	var current *Counters
	flush := func() {
		if current != nil {
			interfaces[current.Interface] = *current
		}
	}

	for _, p := range resp.Params {
		if p.Name == "interfaceNumber" {
			flush()
			current = &Counters{Interface: p.Value}
			continue
		}
		if current == nil {
			continue
		}

		var field *uint64
		switch p.Name {
		case "byteCount":
			field = &current.ByteCount
		case "bytesDropped":
			field = &current.BytesDropped
		case "packetCount":
			field = &current.PacketCount
		case "packetsDropped":
			field = &current.PacketsDropped
		case "errorCount":
			field = &current.ErrorCount
		default:
			continue
		}

		v, err := strconv.ParseUint(p.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("interface %s: invalid %s %q", current.Interface, p.Name, p.Value)
		}
		*field = v
	}
	flush()

	if len(interfaces) == 0 {
		return nil, errors.New("stats response lists no interfaces")
	}
	return interfaces, nil
}

// renderStats builds a <cmd_resp> document for the given counters.
func renderStats(counters []Counters) ([]byte, error) {
	resp := cmdResp{
		CmdName: "get stats",
		Reason:  "success",
		Params: []param{
			{Name: "interfaceCount", Type: "unsigned", Value: strconv.Itoa(len(counters))},
		},
	}
	for _, c := range counters {
		resp.Params = append(resp.Params,
			param{Name: "interfaceType", Type: "keyword", Value: "Ethernet"},
			param{Name: "interfaceNumber", Type: "unsigned", Value: c.Interface},
			param{Name: "byteCount", Type: "unsigned long", Value: strconv.FormatUint(c.ByteCount, 10)},
			param{Name: "bytesDropped", Type: "unsigned long", Value: strconv.FormatUint(c.BytesDropped, 10)},
			param{Name: "packetCount", Type: "unsigned long", Value: strconv.FormatUint(c.PacketCount, 10)},
			param{Name: "packetsDropped", Type: "unsigned long", Value: strconv.FormatUint(c.PacketsDropped, 10)},
			param{Name: "errorCount", Type: "unsigned long", Value: strconv.FormatUint(c.ErrorCount, 10)},
		)
	}
	return xml.MarshalIndent(resp, "", "  ")
}
