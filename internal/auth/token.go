package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// generateTokenID は暗号的に安全な不透明トークンIDを生成する。
// アクセストークンとリフレッシュトークンの両方で使用する。
func generateTokenID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
