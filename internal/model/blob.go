package model

// BlobRef identifies a blob by container (bucket) and name.
// Name may contain slashes; they are part of the blob name, not separate containers.
type BlobRef struct {
	Container string `json:"container"`
	Name      string `json:"name"`
}

// Path returns the "container/name" form used by trigger and output patterns.
func (r BlobRef) Path() string {
	return r.Container + "/" + r.Name
}

func (r BlobRef) String() string {
	return r.Path()
}

// ObjectProperties is a read-only snapshot of a blob's properties, taken once per invocation.
type ObjectProperties struct {
	ContentType string
	Metadata    map[string]string
}
