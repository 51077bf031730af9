package persist

import (
	"os"
	"strings"

	"github.com/peterbourgon/diskv/v3"
)

// diskvKV stores each snapshot section as its own file. Key segments before
// the last colon become directories, so "grove:focus" lands at grove/focus.
type diskvKV struct {
	d *diskv.Diskv
}

func openDiskv(basePath string) (KV, error) {
	return &diskvKV{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPath,
		InverseTransform:  pathToKey,
		CacheSizeMax:      1024 * 1024,
	})}, nil
}

func keyToPath(s string) *diskv.PathKey {
	parts := strings.Split(s, ":")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKey(pk *diskv.PathKey) string {
	if len(pk.Path) == 0 {
		return pk.FileName
	}
	return strings.Join(pk.Path, ":") + ":" + pk.FileName
}

func (k *diskvKV) Get(key string) ([]byte, bool, error) {
	v, err := k.d.Read(key)
	if err != nil {
		if os.IsNotExist(err) || !k.d.Has(key) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return v, true, nil
}

func (k *diskvKV) Set(key string, value []byte) error {
	return k.d.Write(key, value)
}

func (k *diskvKV) SetMany(batch map[string][]byte) error {
	// diskv has no transactions; a batch is just sequential writes.
	for key, v := range batch {
		if err := k.d.Write(key, v); err != nil {
			return err
		}
	}
	return nil
}

func (k *diskvKV) Delete(key string) error {
	if !k.d.Has(key) {
		return nil
	}
	return k.d.Erase(key)
}

func (k *diskvKV) Keys() ([]string, error) {
	var keys []string
	for key := range k.d.Keys(nil) {
		keys = append(keys, key)
	}
	return keys, nil
}

func (k *diskvKV) Close() error { return nil }
