package filestore

import (
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
)

const tmpImageDirPrefix = "_tmp_image_store_"

// LocalImageStore writes image payloads to a temp folder, mainly for local
// development without AWS credentials.
type LocalImageStore struct {
	folderName string
}

func NewLocalImageStore(bucket string) (*LocalImageStore, error) {
	folderName := tmpImageDirPrefix + bucket
	if err := os.MkdirAll(folderName, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalImageStore{folderName: folderName}, nil
}

func (s *LocalImageStore) Store(key string, payload []byte) (string, error) {
	path := filepath.Join(s.folderName, key)
	if err := ioutil.WriteFile(path, payload, 0644); err != nil {
		return "", err
	}
	return fmt.Sprintf("file://%s", path), nil
}

func (s *LocalImageStore) CleanUp() {
	os.RemoveAll(s.folderName)
}
