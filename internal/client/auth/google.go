package auth

import (
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
)

// LoopbackRedirect is registered for desktop clients; the user pastes the
// code parameter of the redirected URL back into the CLI.
const LoopbackRedirect = "http://127.0.0.1"

// GoogleConfig returns the OAuth2 settings for Drive access limited to the
// files the application creates.
func GoogleConfig(clientID, clientSecret string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  LoopbackRedirect,
		Scopes:       []string{drive.DriveFileScope},
	}
}
