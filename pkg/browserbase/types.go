package browserbase

/*
SessionRequest is the create-session payload. Field names follow the REST
API's camelCase wire format; the fingerprint block pins a consistent desktop
Chrome profile because the target sites challenge anything that looks
headless or exotic.
*/
type SessionRequest struct {
	ProjectID       string          `json:"projectId"`
	ExtensionID     string          `json:"extensionId,omitempty"`
	Proxies         bool            `json:"proxies"`
	KeepAlive       bool            `json:"keepAlive"`
	Timeout         int             `json:"timeout"`
	BrowserSettings BrowserSettings `json:"browserSettings"`
}

type BrowserSettings struct {
	BlockAds      bool        `json:"blockAds"`
	SolveCaptchas bool        `json:"solveCaptchas"`
	RecordSession bool        `json:"recordSession"`
	LogSession    bool        `json:"logSession"`
	Fingerprint   Fingerprint `json:"fingerprint"`
	Viewport      Viewport    `json:"viewport"`
}

type Fingerprint struct {
	Screen           ScreenBounds `json:"screen"`
	Browsers         []string     `json:"browsers"`
	OperatingSystems []string     `json:"operatingSystems"`
	Locales          []string     `json:"locales"`
	HTTPVersion      int          `json:"httpVersion"`
	Devices          []string     `json:"devices"`
}

type ScreenBounds struct {
	MaxWidth  int `json:"maxWidth"`
	MaxHeight int `json:"maxHeight"`
	MinWidth  int `json:"minWidth"`
	MinHeight int `json:"minHeight"`
}

type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

/*
Session is the subset of the create-session response the automation layer
needs: the session id for the operator-facing inspector URL and the CDP
endpoint to connect rod to.
*/
type Session struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	ConnectURL string `json:"connectUrl"`
	ProjectID  string `json:"projectId"`
}

// NewSessionRequest builds the default session payload for the given project
// and viewport: residential proxies, ad blocking, captcha solving, session
// recording, and a desktop Chrome en-US fingerprint.
func NewSessionRequest(projectID, extensionID string, viewport Viewport) SessionRequest {
	return SessionRequest{
		ProjectID:   projectID,
		ExtensionID: extensionID,
		Proxies:     true,
		KeepAlive:   true,
		Timeout:     900,
		BrowserSettings: BrowserSettings{
			BlockAds:      true,
			SolveCaptchas: true,
			RecordSession: true,
			LogSession:    true,
			Fingerprint: Fingerprint{
				Screen: ScreenBounds{
					MaxWidth:  1920,
					MaxHeight: 1080,
					MinWidth:  1280,
					MinHeight: 800,
				},
				Browsers:         []string{"chrome"},
				OperatingSystems: []string{"windows", "macos"},
				Locales:          []string{"en-US"},
				HTTPVersion:      2,
				Devices:          []string{"desktop"},
			},
			Viewport: viewport,
		},
	}
}
