package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"os"
)

var randReader io.Reader = rand.Reader

// ErrKeyLoad covers unreadable, malformed, or undecryptable key material.
var ErrKeyLoad = errors.New("key load failed")

// LoadPrivateKey reads an RSA private key in PKCS#1 or PKCS#8 form. Legacy
// OpenSSL-encrypted PEM blocks are decrypted with password.
func LoadPrivateKey(path, password string) (*rsa.PrivateKey, error) {
	block, err := readPEM(path)
	if err != nil {
		return nil, err
	}

	der := block.Bytes
	//nolint:staticcheck // legacy PEM encryption is what openssl genrsa -aes256 emits
	if x509.IsEncryptedPEMBlock(block) {
		if password == "" {
			return nil, fmt.Errorf("%w: %s is encrypted and no password is configured", ErrKeyLoad, path)
		}
		//nolint:staticcheck // see above
		der, err = x509.DecryptPEMBlock(block, []byte(password))
		if err != nil {
			return nil, fmt.Errorf("%w: decrypt %s: %v", ErrKeyLoad, path, err)
		}
	}

	key, err := ParsePrivateKeyDER(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrKeyLoad, path, err)
	}
	return key, nil
}

// LoadPublicKey reads an RSA public key in PKIX or PKCS#1 form.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	block, err := readPEM(path)
	if err != nil {
		return nil, err
	}
	key, err := ParsePublicKeyDER(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrKeyLoad, path, err)
	}
	return key, nil
}

func ParsePrivateKeyDER(der []byte) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return key, nil
}

func ParsePublicKeyDER(der []byte) (*rsa.PublicKey, error) {
	if parsed, err := x509.ParsePKIXPublicKey(der); err == nil {
		key, ok := parsed.(*rsa.PublicKey)
		if !ok {
			return nil, errors.New("public key is not RSA")
		}
		return key, nil
	}
	key, err := x509.ParsePKCS1PublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return key, nil
}

func readPEM(path string) (*pem.Block, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyLoad, err)
	}
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: %s is not PEM encoded", ErrKeyLoad, path)
	}
	return block, nil
}

// EncodePrivateKey returns key as PKCS#1 PEM, encrypted with AES-256 when
// password is set.
func EncodePrivateKey(key *rsa.PrivateKey, password string) ([]byte, error) {
	block := &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}
	if password != "" {
		var err error
		//nolint:staticcheck // matches LoadPrivateKey
		block, err = x509.EncryptPEMBlock(randReader, block.Type, block.Bytes, []byte(password), x509.PEMCipherAES256)
		if err != nil {
			return nil, fmt.Errorf("encrypt private key: %w", err)
		}
	}
	return pem.EncodeToMemory(block), nil
}

// EncodePublicKey returns key as PKIX PEM.
func EncodePublicKey(key *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}
