package tracking

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
)

const profileFileName = "profile_id"

// LoadUserID returns the anonymous user id for this machine profile. The id
// is generated once, cached in the platform data directory, and reused for
// every later session. Any filesystem error falls back to an ephemeral id so
// tracking stays best-effort.
func LoadUserID() string {
	dir, err := profileDir()
	if err != nil {
		return uuid.NewString()
	}
	path := filepath.Join(dir, profileFileName)

	if data, err := os.ReadFile(path); err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id
		}
	}

	id := uuid.NewString()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return id
	}
	if err := os.WriteFile(path, []byte(id+"\n"), 0o600); err != nil {
		return id
	}
	return id
}

func profileDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "MovarideAnalytics"), nil
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "MovarideAnalytics"), nil
	default:
		return filepath.Join(home, ".local", "share", "movaride-analytics"), nil
	}
}
