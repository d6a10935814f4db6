// filestore abstracts where generated image bytes end up. Story documents
// only ever hold the returned url.
package filestore

// ImageStore persists an image payload under a key and returns the public
// url for it.
type ImageStore interface {
	Store(key string, payload []byte) (url string, err error)
}

// FakeImageStore is a test double that fabricates a url without storing
// anything.
type FakeImageStore struct{}

func (*FakeImageStore) Store(key string, payload []byte) (string, error) {
	return "fake://" + key, nil
}
