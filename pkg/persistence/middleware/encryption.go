package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/canopy/pkg/domain"
	"github.com/aretw0/canopy/pkg/ports"
)

// EnvelopeKey is the settings key holding the ciphertext of an encrypted document.
const EnvelopeKey = "__encrypted__"

var (
	// ErrNotEncrypted is returned by Load when the stored document carries no envelope.
	ErrNotEncrypted = errors.New("document is missing encrypted data envelope")
	// ErrDecrypt is returned when no configured key opens the envelope.
	ErrDecrypt = errors.New("decryption failed with all available keys")
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are older keys tried when the active key cannot decrypt,
	// so keys can rotate without rewriting every document first.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next ports.DocumentStore
	// keyring[0] seals; every entry may open.
	keyring []cipher.AEAD
}

// NewEncryptionMiddleware creates a middleware that encrypts documents using AES-GCM.
// The stored document is an envelope: id, version and metadata stay readable, everything
// else is sealed. The storage id is bound as additional data, so an envelope copied to
// another id does not open. It panics on keys that are not 32 bytes.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	keys := append([][]byte{config.ActiveKey}, config.FallbackKeys...)
	keyring := make([]cipher.AEAD, 0, len(keys))
	for i, key := range keys {
		if len(key) != 32 {
			if i == 0 {
				panic("active key must be 32 bytes (AES-256)")
			}
			panic(fmt.Sprintf("fallback key %d must be 32 bytes (AES-256)", i-1))
		}
		aead, err := newGCM(key)
		if err != nil {
			panic(err)
		}
		keyring = append(keyring, aead)
	}

	return func(next ports.DocumentStore) ports.DocumentStore {
		return &encryptionMiddleware{
			next:    next,
			keyring: keyring,
		}
	}
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (m *encryptionMiddleware) Save(ctx context.Context, id string, doc *domain.Document) error {
	plainText, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	sealed, err := m.seal(plainText, []byte(id))
	if err != nil {
		return fmt.Errorf("failed to encrypt document: %w", err)
	}

	envelope := &domain.Document{
		ID:       doc.ID,
		Version:  doc.Version,
		Metadata: doc.Metadata,
		Elements: []domain.ElementData{},
	}
	envelope.Settings.Set(EnvelopeKey, base64.StdEncoding.EncodeToString(sealed))

	return m.next.Save(ctx, id, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, id string) (*domain.Document, error) {
	envelope, err := m.next.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	// A plain document under an encrypting store is an error, never passed through.
	raw, _ := envelope.Settings.Get(EnvelopeKey)
	encoded, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotEncrypted, id)
	}

	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := m.open(sealed, []byte(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}

	var doc domain.Document
	if err := json.Unmarshal(plainText, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted document: %w", err)
	}
	return &doc, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// seal returns nonce || ciphertext.
func (m *encryptionMiddleware) seal(plain, aad []byte) ([]byte, error) {
	aead := m.keyring[0]
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, aad), nil
}

func (m *encryptionMiddleware) open(sealed, aad []byte) ([]byte, error) {
	for _, aead := range m.keyring {
		n := aead.NonceSize()
		if len(sealed) < n {
			return nil, fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
		}
		if plain, err := aead.Open(nil, sealed[:n], sealed[n:], aad); err == nil {
			return plain, nil
		}
	}
	return nil, ErrDecrypt
}
