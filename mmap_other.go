//go:build !unix

package filehasher

const mappingSupported = false

type mappedRegion struct{}

func mapFile(string) (*mappedRegion, error) {
	return nil, ErrMappingUnsupported
}

func (r *mappedRegion) Bytes() []byte { return nil }

func (r *mappedRegion) Close() error { return nil }
