package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"os/user"
	"sync"
)

// FingerprintHeader carries the advisory device identifier.
const FingerprintHeader = "X-Client-Fingerprint"

var (
	fingerprintOnce  sync.Once
	fingerprintValue string
)

// Fingerprint returns a stable advisory identifier for this machine and
// OS user. It is informational only and must not gate access.
func Fingerprint() string {
	fingerprintOnce.Do(func() {
		host, _ := os.Hostname()
		name := ""
		if u, err := user.Current(); err == nil {
			name = u.Username
		}
		fingerprintValue = deriveFingerprint(host, name)
	})
	return fingerprintValue
}

func deriveFingerprint(host, username string) string {
	hash := sha256.Sum256([]byte(host + "\x00" + username))
	return hex.EncodeToString(hash[:])
}
