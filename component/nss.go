package component

// This file contains the NSS specific parts: flag discovery through the
// nss-config and nspr-config helpers and the credential database
// bootstrap.

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/perfgo/timesign/gatherer"
	"github.com/perfgo/timesign/model"
)

var nssConfigQueries = [][]string{
	{"nss-config", "--libs"},
	{"nss-config", "--cflags"},
	{"nspr-config", "--libs"},
	{"nspr-config", "--cflags"},
}

func nssFlags(ctx context.Context, runner gatherer.Runner) ([]string, error) {
	var flags []string
	for _, q := range nssConfigQueries {
		out, err := runner.Output(ctx, q[0], q[1:]...)
		if err != nil {
			return nil, gatherer.NewCommandError(gatherer.Step{Name: "flags", Program: q[0], Args: q[1:]}, err)
		}
		flags = append(flags, strings.Fields(out)...)
	}
	return flags, nil
}

// nssBootstrap imports the generated private key into a fresh NSS
// database through a self-signed certificate and a PKCS#12 bundle.
func nssBootstrap(dir string) []gatherer.Step {
	var (
		key  = filepath.Join(dir, model.PrivateKeyPEMFile)
		cert = filepath.Join(dir, model.CertificateFile)
		p12  = filepath.Join(dir, model.PKCS12File)
		db   = filepath.Join(dir, model.CredentialDBDir)
	)
	return []gatherer.Step{
		{
			Name:    "certificate",
			Program: "openssl",
			Args: []string{"req", "-x509", "-key", key, "-out", cert,
				"-days", "3650", "-nodes", "-subj", "/C=CZ/CN=localhost"},
		},
		{
			Name:    "pkcs12",
			Program: "openssl",
			Args:    []string{"pkcs12", "-export", "-inkey", key, "-in", cert, "-out", p12, "-passout", "pass:"},
		},
		{
			Name: "mkdir",
			Func: func() error { return os.Mkdir(db, 0755) },
		},
		{
			Name:    "certdb",
			Program: "certutil",
			Args:    []string{"-N", "-d", db, "--empty-password"},
		},
		{
			Name:    "import",
			Program: "pk12util",
			Args:    []string{"-d", db, "-i", p12, "-W", ""},
		},
	}
}
