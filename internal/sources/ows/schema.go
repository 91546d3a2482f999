package ows

import "encoding/xml"

// The structures below only cover the parts of GetCapabilities responses the
// inventory reads. Tags carry no namespace so both prefixed and default
// namespaced documents decode.

// wmsCapabilities is a WMS 1.3.0 capabilities document. Layers are the direct
// children of the root layer; nested groups are not walked.
type wmsCapabilities struct {
	XMLName    xml.Name `xml:"WMS_Capabilities"`
	Capability struct {
		Root struct {
			Layers []wmsLayer `xml:"Layer"`
		} `xml:"Layer"`
	} `xml:"Capability"`
}

type wmsLayer struct {
	Name     string     `xml:"Name"`
	Title    string     `xml:"Title"`
	Abstract string     `xml:"Abstract"`
	CRS      []string   `xml:"CRS"`
	BBox     *wmsBounds `xml:"EX_GeographicBoundingBox"`
}

type wmsBounds struct {
	West  string `xml:"westBoundLongitude"`
	East  string `xml:"eastBoundLongitude"`
	South string `xml:"southBoundLatitude"`
	North string `xml:"northBoundLatitude"`
}

// wfsCapabilities is a WFS 1.0.0 capabilities document.
type wfsCapabilities struct {
	XMLName      xml.Name         `xml:"WFS_Capabilities"`
	FeatureTypes []wfsFeatureType `xml:"FeatureTypeList>FeatureType"`
}

type wfsFeatureType struct {
	Name     string     `xml:"Name"`
	Title    string     `xml:"Title"`
	Abstract string     `xml:"Abstract"`
	SRS      []string   `xml:"SRS"`
	BBox     *wfsBounds `xml:"LatLongBoundingBox"`
}

type wfsBounds struct {
	MinX string `xml:"minx,attr"`
	MaxX string `xml:"maxx,attr"`
	MinY string `xml:"miny,attr"`
	MaxY string `xml:"maxy,attr"`
}

// Record is one layer entry as advertised by a capabilities document, before
// filtering and normalization.
type Record struct {
	Name     string
	Title    string
	Abstract string
	// CRS lists the advertised reference systems in document order.
	CRS []string
	// Bounds holds west, east, south, north as written in the document.
	Bounds [4]string
}

func (l wmsLayer) record() Record {
	r := Record{Name: l.Name, Title: l.Title, Abstract: l.Abstract, CRS: l.CRS}
	if l.BBox != nil {
		r.Bounds = [4]string{l.BBox.West, l.BBox.East, l.BBox.South, l.BBox.North}
	}
	return r
}

func (f wfsFeatureType) record() Record {
	r := Record{Name: f.Name, Title: f.Title, Abstract: f.Abstract, CRS: f.SRS}
	if f.BBox != nil {
		r.Bounds = [4]string{f.BBox.MinX, f.BBox.MaxX, f.BBox.MinY, f.BBox.MaxY}
	}
	return r
}
