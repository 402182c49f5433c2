package browserbase

import (
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"

	"queryfanout/pkg/errors"
)

const (
	EnvAPIKey      = "BROWSERBASE_API_KEY"
	EnvProjectID   = "BROWSERBASE_PROJECT_ID"
	EnvExtensionID = "BROWSERBASE_EXTENSION_ID"
)

// Credentials holds everything needed to provision remote sessions. The
// extension id is optional and only attached to session requests when set.
type Credentials struct {
	APIKey      string
	ProjectID   string
	ExtensionID string
}

// CredentialsFile returns the default ini credentials path,
// ~/.queryfanout/credentials.ini.
func CredentialsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".queryfanout", "credentials.ini")
}

/*
LoadCredentials resolves credentials from the environment first, then from
the ini credentials file for any key the environment left empty. Both the
API key and the project id are required; missing either is a fatal
configuration error surfaced before any session is opened.
*/
func LoadCredentials(path string) (*Credentials, error) {
	creds := &Credentials{
		APIKey:      os.Getenv(EnvAPIKey),
		ProjectID:   os.Getenv(EnvProjectID),
		ExtensionID: os.Getenv(EnvExtensionID),
	}

	if path != "" {
		if cfg, err := ini.Load(path); err == nil {
			section := cfg.Section("browserbase")

			if creds.APIKey == "" {
				creds.APIKey = section.Key("api_key").String()
			}
			if creds.ProjectID == "" {
				creds.ProjectID = section.Key("project_id").String()
			}
			if creds.ExtensionID == "" {
				creds.ExtensionID = section.Key("extension_id").String()
			}
		}
	}

	var missing []string
	if creds.APIKey == "" {
		missing = append(missing, EnvAPIKey)
	}
	if creds.ProjectID == "" {
		missing = append(missing, EnvProjectID)
	}

	if len(missing) > 0 {
		return nil, &errors.ConfigError{Missing: missing}
	}

	return creds, nil
}
