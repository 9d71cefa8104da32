package keys

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/perfgo/timesign/model"
)

type keyFile struct {
	name string
	data []byte
	perm os.FileMode
}

// Write persists the key in every format a backend may read. PEM and DER
// encodings of both halves are always written; the scalar descriptor only
// when withScalar is set. Each file is written to a temporary name and
// renamed into place. It returns the names of the written files.
func Write(dir string, key *Key, withScalar bool) ([]string, error) {
	privDER, err := key.MarshalPKCS8()
	if err != nil {
		return nil, fmt.Errorf("failed to encode private key: %w", err)
	}
	pubDER, err := key.MarshalPKIX()
	if err != nil {
		return nil, fmt.Errorf("failed to encode public key: %w", err)
	}
	privPEM, err := key.PrivatePEM()
	if err != nil {
		return nil, fmt.Errorf("failed to encode private key: %w", err)
	}
	pubPEM, err := key.PublicPEM()
	if err != nil {
		return nil, fmt.Errorf("failed to encode public key: %w", err)
	}

	files := []keyFile{
		{model.PrivateKeyPEMFile, privPEM, 0600},
		{model.PrivateKeyDERFile, privDER, 0600},
		{model.PublicKeyPEMFile, pubPEM, 0644},
		{model.PublicKeyDERFile, pubDER, 0644},
	}
	if withScalar {
		files = append(files, keyFile{model.ScalarFile, key.ScalarDescriptor(), 0600})
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		if err := writeFileAtomic(filepath.Join(dir, f.name), f.data, f.perm); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", f.name, err)
		}
		written = append(written, f.name)
	}
	return written, nil
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
