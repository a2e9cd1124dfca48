package protocol

// HydrateRequest binds pre-rendered markup to interpreter ids. IDs maps the
// marker index written at render time to the runtime NodeID.
type HydrateRequest struct {
	IDs    []NodeID `json:"ids"`
	Markup string   `json:"markup"`
}

// EncodeHydrate encodes a hydration request.
//
//	[Count:uvarint][NodeID:uvarint...][Markup:string]
func EncodeHydrate(r *HydrateRequest) []byte {
	e := NewEncoderWithCap(len(r.Markup) + 8*len(r.IDs) + 8)
	e.WriteUvarint(uint64(len(r.IDs)))
	for _, id := range r.IDs {
		e.WriteNodeID(id)
	}
	e.WriteString(r.Markup)
	return e.Bytes()
}

// DecodeHydrate decodes a hydration request.
func DecodeHydrate(data []byte) (*HydrateRequest, error) {
	d := NewDecoder(data)
	n, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	r := &HydrateRequest{}
	if n > 0 {
		r.IDs = make([]NodeID, n)
	}
	for i := range r.IDs {
		if r.IDs[i], err = d.ReadNodeID(); err != nil {
			return nil, err
		}
	}
	if r.Markup, err = d.ReadString(); err != nil {
		return nil, err
	}
	return r, nil
}
