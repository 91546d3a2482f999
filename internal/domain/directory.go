package domain

// Server is one configured geodata server and the services currently polled on it.
type Server struct {
	Name string `json:"name"`
	OWS  string `json:"ows"`
	WMS  bool   `json:"wms"`
	WFS  bool   `json:"wfs"`
}

// Enabled reports whether svc is polled on s.
func (s Server) Enabled(svc Service) bool {
	switch svc {
	case ServiceWMS:
		return s.WMS
	case ServiceWFS:
		return s.WFS
	default:
		return false
	}
}

// EnabledServices returns the services polled on s, in query order.
func (s Server) EnabledServices() []Service {
	var out []Service
	for _, svc := range Services {
		if s.Enabled(svc) {
			out = append(out, svc)
		}
	}
	return out
}

func (s *Server) disable(svc Service) {
	switch svc {
	case ServiceWMS:
		s.WMS = false
	case ServiceWFS:
		s.WFS = false
	}
}

// Directory is the configured list of servers, in file order.
type Directory []Server

// Clone returns an independent copy of d.
func (d Directory) Clone() Directory {
	if d == nil {
		return nil
	}
	out := make(Directory, len(d))
	copy(out, d)
	return out
}

// Names returns the set of configured server ids.
func (d Directory) Names() StringSet {
	set := make(StringSet, len(d))
	for _, s := range d {
		set.Add(s.Name)
	}
	return set
}

// Find returns the first server named name.
func (d Directory) Find(name string) (Server, bool) {
	for _, s := range d {
		if s.Name == name {
			return s, true
		}
	}
	return Server{}, false
}

// Enabled reports whether the pair is configured and polled.
func (d Directory) Enabled(p Pair) bool {
	s, ok := d.Find(p.Server)
	return ok && s.Enabled(p.Service)
}
