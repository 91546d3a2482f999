package ows

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/MrSnakeDoc/geoinv/internal/domain"
)

// Versions pins the protocol version requested per service so responses have a
// predictable structure.
var Versions = map[domain.Service]string{
	domain.ServiceWMS: "1.3.0",
	domain.ServiceWFS: "1.0.0",
}

var utf8BOM = []byte("\xef\xbb\xbf")

// CapabilitiesURL builds the GetCapabilities request for svc on an OWS endpoint.
// Existing query parameters on the endpoint are kept.
func CapabilitiesURL(endpoint string, svc domain.Service) (string, error) {
	version, ok := Versions[svc]
	if !ok {
		return "", fmt.Errorf("unsupported service %q", svc)
	}
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid endpoint %q: scheme must be http or https", endpoint)
	}
	q := u.Query()
	q.Set("service", string(svc))
	q.Set("version", version)
	q.Set("request", "GetCapabilities")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Decode parses a capabilities document for svc and returns its layer entries.
//
// Servers frequently declare ISO-8859-1 while sending UTF-8; when the bytes are
// valid UTF-8 the declaration is ignored, otherwise the declared charset is decoded.
func Decode(svc domain.Service, data []byte) ([]Record, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader(utf8.Valid(data))

	switch svc {
	case domain.ServiceWMS:
		var doc wmsCapabilities
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode wms capabilities: %w", err)
		}
		records := make([]Record, 0, len(doc.Capability.Root.Layers))
		for _, l := range doc.Capability.Root.Layers {
			records = append(records, l.record())
		}
		return records, nil

	case domain.ServiceWFS:
		var doc wfsCapabilities
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode wfs capabilities: %w", err)
		}
		records := make([]Record, 0, len(doc.FeatureTypes))
		for _, f := range doc.FeatureTypes {
			records = append(records, f.record())
		}
		return records, nil

	default:
		return nil, fmt.Errorf("unsupported service %q", svc)
	}
}

func charsetReader(validUTF8 bool) func(string, io.Reader) (io.Reader, error) {
	return func(label string, input io.Reader) (io.Reader, error) {
		if validUTF8 {
			return input, nil
		}
		r, err := charset.NewReaderLabel(label, input)
		if err != nil {
			return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
		}
		return r, nil
	}
}
