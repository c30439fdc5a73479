package utils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// Encrypt 加密敏感数据（使用 AES-256-GCM）
func Encrypt(plaintext string, key string) (string, error) {
	// 验证密钥长度（至少 32 字节）
	if len(key) < 32 {
		return "", errors.New("key must be at least 32 bytes long")
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	// 生成随机 nonce
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	// 加密数据
	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	// 返回 base64 编码的密文
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt 解密敏感数据（使用 AES-256-GCM）
func Decrypt(ciphertext string, key string) (string, error) {
	// 验证密钥长度
	if len(key) < 32 {
		return "", errors.New("key must be at least 32 bytes long")
	}

	// 解码 base64
	ciphertextBytes, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	// 提取 nonce
	nonceSize := gcm.NonceSize()
	if len(ciphertextBytes) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertextBytes := ciphertextBytes[:nonceSize], ciphertextBytes[nonceSize:]

	// 解密数据
	plaintext, err := gcm.Open(nil, nonce, ciphertextBytes, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}

// newGCM 由密钥的 SHA-256 构造 AES-GCM
func newGCM(key string) (cipher.AEAD, error) {
	keyHash := sha256.Sum256([]byte(key))

	block, err := aes.NewCipher(keyHash[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// MaskToken 遮盖 token,只保留首尾各 4 个字符
func MaskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 12 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}

// ProtectToken 日志中使用的 token 表示
// 配置了密钥时加密,否则遮盖
func ProtectToken(token string, key string) string {
	if token == "" {
		return ""
	}
	if key != "" {
		if encrypted, err := Encrypt(token, key); err == nil {
			return encrypted
		}
	}
	return MaskToken(token)
}
