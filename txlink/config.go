package txlink

import (
	"encoding/xml"
	"io"
	"os"
	"strconv"
)

// TargetConfig is one downlink destination from the deployment file.
type TargetConfig struct {
	Addr string
	Port int
	Type string // "UDP" or "TCP"
	Mask uint32
}

// ParseTargets reads the txlist block of a deployment XML file:
//
//	<deployment>
//	  <txlist>
//	    <transferItem addr="10.0.0.2" port="5555" type="UDP" data="1"/>
//	  </txlist>
//	</deployment>
//
// Malformed entries are skipped; a missing file yields an empty list.
func ParseTargets(path string) []TargetConfig {
	configs := []TargetConfig{}
	f, err := os.Open(path)
	if err != nil {
		return configs
	}
	defer f.Close()

	dec := xml.NewDecoder(f)
	inTxList := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "txlist" {
				inTxList = true
				continue
			}
			if t.Name.Local == "transferItem" && inTxList {
				addr, ok := attrValue(t, "addr")
				if !ok {
					continue
				}
				portStr, _ := attrValue(t, "port")
				typ, _ := attrValue(t, "type")
				maskStr, _ := attrValue(t, "data")

				port, err := strconv.Atoi(portStr)
				if err != nil || port <= 0 {
					continue
				}
				mask, err := strconv.ParseUint(maskStr, 10, 32)
				if err != nil {
					mask = FlagTemperature
				}

				configs = append(configs, TargetConfig{
					Addr: addr,
					Port: port,
					Type: typ,
					Mask: uint32(mask),
				})
			}
		case xml.EndElement:
			if t.Name.Local == "txlist" {
				inTxList = false
			}
		}
	}
	return configs
}

func attrValue(el xml.StartElement, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
