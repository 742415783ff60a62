package models

// Cookie is one serialized browser cookie. The field set is the common
// denominator between the playwright and chromedp cookie models.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"` // unix seconds, -1 for session cookies
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite,omitempty"`
}

// Session is the serialized authenticated browser state for one identity.
// Staleness is discovered reactively: a session is only known to be bad
// when a navigation with its cookies fails to show logged-in UI.
type Session struct {
	Cookies []Cookie `json:"cookies"`
}
