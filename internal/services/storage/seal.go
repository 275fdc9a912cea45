package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"filippo.io/age"
)

// sealable lists the export extensions Seal encrypts
var sealable = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".json": true,
}

// Seal encrypts every plaintext export in the directory in place, renaming
// each to <name>.age. It returns the new paths. On failure, files already
// sealed in this call are restored.
func (s *Storage) Seal(passphrase string) ([]string, error) {
	if len(passphrase) < MinPassphraseLength {
		return nil, fmt.Errorf("passphrase must be at least %d characters", MinPassphraseLength)
	}

	recipient, err := age.NewScryptRecipient(passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to create recipient: %w", err)
	}
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var toSeal []string
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan exports: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !sealable[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		path := filepath.Join(s.baseDir, e.Name())
		if !fileIsEncrypted(path) {
			toSeal = append(toSeal, path)
		}
	}

	var sealed []string
	for _, path := range toSeal {
		out, err := encryptFile(path, recipient)
		if err != nil {
			rollbackSeal(sealed, identity)
			return nil, fmt.Errorf("failed to encrypt %s: %w", filepath.Base(path), err)
		}
		sealed = append(sealed, out)
	}

	return sealed, nil
}

// Unseal decrypts every .age export in the directory that opens with
// passphrase, restoring the original name. Files sealed under a different
// passphrase are left alone and reported in skipped.
func (s *Storage) Unseal(passphrase string) (opened, skipped []string, err error) {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create identity: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan exports: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), EncryptedSuffix) {
			continue
		}
		path := filepath.Join(s.baseDir, e.Name())
		out, err := decryptFile(path, identity)
		if err != nil {
			skipped = append(skipped, path)
			continue
		}
		opened = append(opened, out)
	}

	return opened, skipped, nil
}

// encryptFile encrypts a single file and replaces it with <path>.age
func encryptFile(path string, recipient *age.ScryptRecipient) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	encrypted, err := encryptData(data, recipient)
	if err != nil {
		return "", err
	}

	out := path + EncryptedSuffix
	if err := atomicWrite(out, encrypted, 0644); err != nil {
		return "", err
	}
	return out, os.Remove(path)
}

// decryptFile decrypts a single .age file and replaces it with the plain name
func decryptFile(path string, identity *age.ScryptIdentity) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !isAgeEncrypted(data) {
		return "", fmt.Errorf("not an age file")
	}

	decrypted, err := decryptData(data, identity)
	if err != nil {
		return "", err
	}

	out := strings.TrimSuffix(path, EncryptedSuffix)
	if err := atomicWrite(out, decrypted, 0644); err != nil {
		return "", err
	}
	return out, os.Remove(path)
}

// rollbackSeal restores files sealed during a failed Seal (best effort)
func rollbackSeal(files []string, identity *age.ScryptIdentity) {
	for _, path := range files {
		decryptFile(path, identity)
	}
}
