package model

import (
	"errors"
	"fmt"
)

const (
	DefaultSamples    = 1000000
	DefaultSampleSize = 32
	DefaultComponent  = "openssl"
)

// Fixed artifact names inside the output directory.
const (
	DataFile          = "data"
	SignaturesFile    = "sigs"
	TimingsFile       = "times"
	PrivateKeyPEMFile = "priv_key.pem"
	PrivateKeyDERFile = "priv_key.der"
	PublicKeyPEMFile  = "pub_key.pem"
	PublicKeyDERFile  = "pub_key.der"
	ScalarFile        = "priv_key.txt"
	CertificateFile   = "pub_cert.cert"
	PKCS12File        = "key.p12"
	CredentialDBDir   = "nssdb"
	ExecutableFile    = "time_sign"
	ManifestFile      = "run.json"
)

// RunConfig fully determines a collection run. It is validated once and
// then passed by value to every pipeline step.
type RunConfig struct {
	// Directory where every artifact of the run is written
	OutputDir string `toml:"output" json:"output_dir"`
	// Curve name, e.g. NIST256p or SECP256k1
	Curve string `toml:"curve" json:"curve"`
	// Number of records to sign
	Samples int `toml:"samples" json:"samples"`
	// Size of each record in bytes
	SampleSize int `toml:"sample_size" json:"sample_size"`
	// Backend under test
	Component string `toml:"component" json:"component"`
	// Path of the gatherer source, script or package
	Gatherer string `toml:"gatherer" json:"gatherer,omitempty"`
	// Compiler flags replacing (or extending, with KeepFlags) the defaults
	CompileFlags []string `toml:"gcc_flags" json:"gcc_flags,omitempty"`
	KeepFlags    bool     `toml:"keep_flags" json:"keep_flags,omitempty"`
	// Build the native gatherer for a 32 bit target
	Force32Bit bool `toml:"run_in_32" json:"run_in_32,omitempty"`
}

// DefaultRunConfig returns the configuration used when nothing else is given.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Samples:    DefaultSamples,
		SampleSize: DefaultSampleSize,
		Component:  DefaultComponent,
	}
}

// DataSize is the exact byte length of the random data file.
func (c RunConfig) DataSize() int64 {
	return int64(c.Samples) * int64(c.SampleSize)
}

// Validate checks the fields that do not need a registry lookup.
func (c RunConfig) Validate() error {
	if c.OutputDir == "" || c.Curve == "" {
		return &ConfigError{Err: errors.New("specifying curve and output is mandatory")}
	}
	if c.Samples <= 0 {
		return &ConfigError{Err: fmt.Errorf("number of samples must be positive, got %d", c.Samples)}
	}
	if c.SampleSize <= 0 {
		return &ConfigError{Err: fmt.Errorf("size of data must be positive, got %d", c.SampleSize)}
	}
	return nil
}

// ConfigError is returned for invalid run configuration. It is always
// reported before the output directory is touched.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return "invalid configuration: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
