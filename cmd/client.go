package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/lemo-app/lemo-dashboard/api/services"
)

var tokenFile string

var errNotLoggedIn = errors.New("not logged in; run the login command first")

func init() {
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", defaultTokenFile(),
		"where the login command keeps the API token")
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".lemo-token"
	}
	return filepath.Join(dir, "lemo", "token")
}

func newAPIClient() *services.LemoClient {
	return services.NewLemoClient(appCfg.API.URL, &http.Client{Timeout: appCfg.API.Timeout})
}

func saveToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

func loadToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", errNotLoggedIn
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", errNotLoggedIn
	}
	return token, nil
}
