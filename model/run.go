package model

import "time"

// Run is the manifest written to run.json at the end of a collection run.
type Run struct {
	// Unique ID for this run
	ID string `json:"id"`
	// Timestamp when the run started
	Timestamp time.Time `json:"timestamp"`
	// Configuration the run was started with
	Config RunConfig `json:"config"`
	// Exit code of the run
	ExitCode int `json:"exit_code"`
	// Error message of a failed run (redacted the same way as console output)
	Error string `json:"error,omitempty"`
	// Duration of the run
	Duration time.Duration `json:"duration"`
	// Machine the samples were taken on
	Target *Target `json:"target,omitempty"`
	// Source revision of the gatherer, if it lives in a git checkout
	Gatherer *Gatherer `json:"gatherer,omitempty"`
	// Outcome of the output count check
	Result *Result `json:"result,omitempty"`
	// Artifacts generated during this run
	Artifacts []Artifact `json:"artifacts,omitempty"`
}

// Target contains information about the execution environment
type Target struct {
	Hostname string `json:"hostname,omitempty"`
	OS       string `json:"os,omitempty"`
	Arch     string `json:"arch,omitempty"`
	NumCPU   int    `json:"num_cpu,omitempty"`
}

// Gatherer describes the gatherer used for the run
type Gatherer struct {
	Path   string `json:"path"`
	Commit string `json:"commit,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// Result records how many signatures and timings the gatherer produced.
type Result struct {
	Records    int  `json:"records"`
	Signatures int  `json:"signatures"`
	Timings    int  `json:"timings"`
	Verified   bool `json:"verified"`
}

// ArtifactType identifies the role of a file in the output directory
type ArtifactType uint8

const (
	ArtifactTypePrivateKey ArtifactType = iota
	ArtifactTypePublicKey
	ArtifactTypeScalar
	ArtifactTypeCertificate
	ArtifactTypePKCS12
	ArtifactTypeCredentialDB
	ArtifactTypeData
	ArtifactTypeSignatures
	ArtifactTypeTimings
	ArtifactTypeExecutable
)

func (t ArtifactType) String() string {
	switch t {
	case ArtifactTypePrivateKey:
		return "private key"
	case ArtifactTypePublicKey:
		return "public key"
	case ArtifactTypeScalar:
		return "scalar"
	case ArtifactTypeCertificate:
		return "certificate"
	case ArtifactTypePKCS12:
		return "pkcs12"
	case ArtifactTypeCredentialDB:
		return "nssdb"
	case ArtifactTypeData:
		return "data"
	case ArtifactTypeSignatures:
		return "signatures"
	case ArtifactTypeTimings:
		return "timings"
	case ArtifactTypeExecutable:
		return "binary"
	}
	return "unknown"
}

// Artifact represents a file generated during a run
type Artifact struct {
	Type ArtifactType `json:"type"`
	Size uint64       `json:"size"`
	File string       `json:"file"` // relative to the output dir
	Hash string       `json:"hash,omitempty"`
}

// KnownArtifacts maps every fixed artifact name to its type.
var KnownArtifacts = map[string]ArtifactType{
	PrivateKeyPEMFile: ArtifactTypePrivateKey,
	PrivateKeyDERFile: ArtifactTypePrivateKey,
	PublicKeyPEMFile:  ArtifactTypePublicKey,
	PublicKeyDERFile:  ArtifactTypePublicKey,
	ScalarFile:        ArtifactTypeScalar,
	CertificateFile:   ArtifactTypeCertificate,
	PKCS12File:        ArtifactTypePKCS12,
	CredentialDBDir:   ArtifactTypeCredentialDB,
	DataFile:          ArtifactTypeData,
	SignaturesFile:    ArtifactTypeSignatures,
	TimingsFile:       ArtifactTypeTimings,
	ExecutableFile:    ArtifactTypeExecutable,
}
