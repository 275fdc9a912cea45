package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"filippo.io/age"
)

func encryptData(data []byte, recipient age.Recipient) ([]byte, error) {
	var buf bytes.Buffer

	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decryptData(data []byte, identity age.Identity) ([]byte, error) {
	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// Decrypt reads an age-encrypted export from r using passphrase and copies
// the plaintext to w. It works on files outside any Storage directory.
func Decrypt(w io.Writer, r io.Reader, passphrase string) error {
	identity, err := age.NewScryptIdentity(passphrase)
	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}

	plain, err := age.Decrypt(r, identity)
	if err != nil {
		return fmt.Errorf("incorrect passphrase or not an age file: %w", err)
	}

	_, err = io.Copy(w, plain)
	return err
}

// DecryptFile decrypts the file at src into dst
func DecryptFile(src, dst, passphrase string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	var buf bytes.Buffer
	if err := Decrypt(&buf, in, passphrase); err != nil {
		return err
	}
	return atomicWrite(dst, buf.Bytes(), 0644)
}
