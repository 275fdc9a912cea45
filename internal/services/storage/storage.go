package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"filippo.io/age"
)

const (
	// ageHeader is the prefix of Age-encrypted files
	ageHeader = "age-encryption.org"

	// EncryptedSuffix is appended to the name of encrypted exports
	EncryptedSuffix = ".age"

	// MinPassphraseLength is the shortest accepted export passphrase
	MinPassphraseLength = 8
)

// ErrLocked is returned when an encrypted export is read without a passphrase
var ErrLocked = errors.New("export is encrypted and no passphrase is set")

// ExportInfo describes one file in the export directory
type ExportInfo struct {
	Name      string
	Path      string
	Size      int64
	Modified  time.Time
	Encrypted bool
}

// Storage writes simulation exports into a directory, optionally encrypting
// them with an age scrypt passphrase.
type Storage struct {
	baseDir   string
	identity  *age.ScryptIdentity
	recipient *age.ScryptRecipient
	mu        sync.RWMutex
}

// New creates a Storage rooted at baseDir, creating the directory if needed
func New(baseDir string) (*Storage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	return &Storage{baseDir: baseDir}, nil
}

// BaseDir returns the base directory
func (s *Storage) BaseDir() string {
	return s.baseDir
}

// SetPassphrase enables encryption of subsequent writes
func (s *Storage) SetPassphrase(passphrase string) error {
	if len(passphrase) < MinPassphraseLength {
		return fmt.Errorf("passphrase must be at least %d characters", MinPassphraseLength)
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return fmt.Errorf("failed to create recipient: %w", err)
	}
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipient = recipient
	s.identity = identity
	return nil
}

// Lock clears the passphrase from memory
func (s *Storage) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.identity = nil
	s.recipient = nil
}

// IsEncrypting returns true if writes are currently encrypted
func (s *Storage) IsEncrypting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recipient != nil
}

// WriteExport stores data under name and returns the path written. When a
// passphrase is set the content is encrypted and the name gets the .age suffix.
func (s *Storage) WriteExport(name string, data []byte) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	if s.recipient != nil {
		encrypted, err := encryptData(data, s.recipient)
		if err != nil {
			return "", fmt.Errorf("failed to encrypt: %w", err)
		}
		data = encrypted
		if !strings.HasSuffix(path, EncryptedSuffix) {
			path += EncryptedSuffix
		}
	}

	if err := atomicWrite(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// ReadExport reads an export, decrypting it if needed
func (s *Storage) ReadExport(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if isAgeEncrypted(data) {
		if s.identity == nil {
			return nil, ErrLocked
		}
		decrypted, err := decryptData(data, s.identity)
		if err != nil {
			return nil, fmt.Errorf("incorrect passphrase")
		}
		return decrypted, nil
	}

	return data, nil
}

// List returns the files in the export directory sorted by name
func (s *Storage) List() ([]ExportInfo, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}

	var out []ExportInfo
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".tmp") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(s.baseDir, e.Name())
		out = append(out, ExportInfo{
			Name:      e.Name(),
			Path:      path,
			Size:      info.Size(),
			Modified:  info.ModTime(),
			Encrypted: fileIsEncrypted(path),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Remove deletes an export
func (s *Storage) Remove(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	return os.Remove(path)
}

// resolve maps an export name to a path inside the base directory
func (s *Storage) resolve(name string) (string, error) {
	clean := filepath.Base(filepath.Clean(name))
	if clean == "." || clean == ".." || clean == string(filepath.Separator) || clean != name {
		return "", fmt.Errorf("invalid export name %q", name)
	}
	return filepath.Join(s.baseDir, clean), nil
}

// atomicWrite writes data to a file atomically using a temp file
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

// isAgeEncrypted checks if data starts with the Age encryption header
func isAgeEncrypted(data []byte) bool {
	return len(data) > len(ageHeader) && string(data[:len(ageHeader)]) == ageHeader
}

func fileIsEncrypted(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, len(ageHeader)+1)
	n, _ := f.Read(head)
	return isAgeEncrypted(head[:n])
}
