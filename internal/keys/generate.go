package keys

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// GenerateOptions controls Generate.
type GenerateOptions struct {
	Dir        string
	KeymapFile string
	KID        string
	Bits       int
	Password   string
}

// Generate writes a new RSA pair under Dir as <kid>.private.pem and
// <kid>.public.pem, marks it active in the keymap, and leaves earlier
// entries in place so tokens they signed keep verifying.
func Generate(opts GenerateOptions) error {
	if opts.KID == "" || opts.KID == FallbackKID {
		return fmt.Errorf("invalid key identifier %q", opts.KID)
	}
	if opts.Bits == 0 {
		opts.Bits = 4096
	}
	if err := os.MkdirAll(opts.Dir, 0o700); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}

	keymapPath := filepath.Join(opts.Dir, opts.KeymapFile)
	km, err := ReadKeymap(keymapPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		km = Keymap{}
	case err != nil:
		return err
	}
	if _, exists := km[opts.KID]; exists {
		return fmt.Errorf("key identifier %q already exists; identifiers are never reused", opts.KID)
	}

	key, err := rsa.GenerateKey(randReader, opts.Bits)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}
	privPEM, err := EncodePrivateKey(key, opts.Password)
	if err != nil {
		return err
	}
	pubPEM, err := EncodePublicKey(&key.PublicKey)
	if err != nil {
		return err
	}

	entry := Entry{
		Private: opts.KID + ".private.pem",
		Public:  opts.KID + ".public.pem",
		Active:  true,
	}
	if err := os.WriteFile(filepath.Join(opts.Dir, entry.Private), privPEM, 0o600); err != nil {
		return fmt.Errorf("write private key: %w", err)
	}
	if err := os.WriteFile(filepath.Join(opts.Dir, entry.Public), pubPEM, 0o644); err != nil {
		return fmt.Errorf("write public key: %w", err)
	}

	for kid, e := range km {
		e.Active = false
		km[kid] = e
	}
	km[opts.KID] = entry
	return WriteKeymap(keymapPath, km)
}

// Retire removes kid from the keymap once no unexpired token can carry it.
func Retire(dir, keymapFile, kid string) error {
	keymapPath := filepath.Join(dir, keymapFile)
	km, err := ReadKeymap(keymapPath)
	if err != nil {
		return err
	}
	entry, ok := km[kid]
	if !ok {
		return fmt.Errorf("%w: %q", ErrKeyNotFound, kid)
	}
	if entry.Active {
		return fmt.Errorf("key %q is active and cannot be retired", kid)
	}
	delete(km, kid)
	return WriteKeymap(keymapPath, km)
}
