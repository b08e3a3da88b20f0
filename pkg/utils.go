package pkg

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/gin-gonic/gin"
)

// GetClientIP defers to gin, which only honours forwarding headers sent by a
// proxy listed in the engine's trusted proxies.
func GetClientIP(c *gin.Context) string {
	ip := c.ClientIP()

	if ip == "" {
		return "unknown"
	}

	return ip
}

// FindProjectRoot walks up from this file until it finds go.mod, falling back
// to the working directory.
func FindProjectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	dir := filepath.Dir(filename)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}

		dir = parent
	}

	wd, _ := os.Getwd()
	return wd
}
