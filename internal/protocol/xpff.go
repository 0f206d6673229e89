package protocol

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// XPFFGenerator builds the x-xp-forwarded-for header: an AES-256-GCM
// envelope around a small navigator-properties payload, keyed off a
// platform-fixed base key combined with the session's guest ID.
type XPFFGenerator struct {
	baseKey string
}

type navigatorProperties struct {
	HasBeenActive string `json:"hasBeenActive"`
	UserAgent     string `json:"userAgent"`
	Webdriver     string `json:"webdriver"`
}

type xpffPayload struct {
	NavigatorProperties navigatorProperties `json:"navigator_properties"`
	CreatedAt           int64               `json:"created_at"`
}

// NewXPFFGenerator returns a generator using the platform's fixed base key.
func NewXPFFGenerator() *XPFFGenerator {
	return &XPFFGenerator{
		baseKey: "0e6be1f1e21ffc33590b888fd4dc81b19713e570e805d4e5df80a493c9571a05",
	}
}

// Generate builds the encrypted header value for one request.
func (x *XPFFGenerator) Generate(guestID, userAgent string) (string, error) {
	payload := xpffPayload{
		NavigatorProperties: navigatorProperties{
			HasBeenActive: "true",
			UserAgent:     userAgent,
			Webdriver:     "false",
		},
		CreatedAt: time.Now().UnixMilli(),
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal xpff payload: %w", err)
	}

	key, err := x.encryptionKey(guestID)
	if err != nil {
		return "", fmt.Errorf("derive xpff key: %w", err)
	}

	encrypted, err := encryptAESGCM(payloadJSON, key)
	if err != nil {
		return "", fmt.Errorf("encrypt xpff payload: %w", err)
	}

	return hex.EncodeToString(encrypted), nil
}

func (x *XPFFGenerator) encryptionKey(guestID string) ([]byte, error) {
	hash := sha256.Sum256([]byte(x.baseKey + guestID))
	return hash[:], nil
}

func encryptAESGCM(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new aes cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)
	return append(nonce, ciphertext...), nil
}
