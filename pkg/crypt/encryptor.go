package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"gopkg.in/go-playground/validator.v9"
	"io"
)

var ErrShortCiphertext = errors.New("ciphertext is shorter than nonce")

// Encryptor seals values with AES-GCM under a key derived from a passphrase.
// Every value gets its own random nonce, stored in front of the ciphertext.
type Encryptor struct {
	Gcm cipher.AEAD `validate:"required"`
}

var validate = validator.New()

func NewEncryptor(privateKey string) *Encryptor {
	if privateKey == "" {
		panic("PrivateKey is required to create Encryptor")
	}
	encryptor := &Encryptor{
		Gcm: generateAead(privateKey),
	}

	if err := validate.Struct(encryptor); err != nil {
		panic(err.Error())
	}
	return encryptor
}

func generateAead(privateKey string) cipher.AEAD {
	key := sha256.Sum256([]byte(privateKey))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		panic(err.Error())
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		panic(err.Error())
	}
	return gcm
}

func (encryptor *Encryptor) Encrypt(value string) (string, error) {
	nonce := make([]byte, encryptor.Gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := encryptor.Gcm.Seal(nonce, nonce, []byte(value), nil)
	return hex.EncodeToString(sealed), nil
}

func (encryptor *Encryptor) Decrypt(encrypted string) (string, error) {
	encryptedBytes, err := hex.DecodeString(encrypted)
	if err != nil {
		return "", err
	}
	nonceSize := encryptor.Gcm.NonceSize()
	if len(encryptedBytes) < nonceSize {
		return "", ErrShortCiphertext
	}
	nonce, ciphertext := encryptedBytes[:nonceSize], encryptedBytes[nonceSize:]
	plaintext, err := encryptor.Gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
