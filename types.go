package moversapi

import "time"

// ServiceHealth is the payload returned by the backend health endpoint.
type ServiceHealth struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Uptime  int64  `json:"uptime,omitempty"`
}

// NavItem is a single entry of the site navigation tree.
type NavItem struct {
	Label    string    `json:"label"`
	Path     string    `json:"path"`
	External bool      `json:"external,omitempty"`
	Children []NavItem `json:"children,omitempty"`
}

// ServiceOffering describes one moving service (local, long-distance, packing, ...).
type ServiceOffering struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Summary     string   `json:"summary"`
	Description string   `json:"description,omitempty"`
	Features    []string `json:"features,omitempty"`
	IconURL     string   `json:"iconUrl,omitempty"`
}

// AboutContent is the company-profile copy for the about page.
type AboutContent struct {
	Heading     string   `json:"heading"`
	Body        string   `json:"body"`
	FoundedYear int      `json:"foundedYear,omitempty"`
	TeamSize    int      `json:"teamSize,omitempty"`
	Values      []string `json:"values,omitempty"`
}

// ContactInfo holds the company contact channels.
type ContactInfo struct {
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address,omitempty"`
	Hours   string `json:"hours,omitempty"`
}

// Testimonial is a customer review displayed on the site.
type Testimonial struct {
	ID       string    `json:"id"`
	Author   string    `json:"author"`
	Quote    string    `json:"quote"`
	Rating   int       `json:"rating"`
	Location string    `json:"location,omitempty"`
	Date     time.Time `json:"date,omitempty"`
}

// RecentMove is an anonymized record of a completed move.
type RecentMove struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	MoveDate    time.Time `json:"moveDate"`
	Distance    float64   `json:"distanceMiles,omitempty"`
}

// RecentMovesTotal is the running count of completed moves.
type RecentMovesTotal struct {
	Total int64 `json:"total"`
}

// Location is a branch office or service hub.
type Location struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Slug    string  `json:"slug"`
	Address string  `json:"address"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	Zip     string  `json:"zip"`
	Phone   string  `json:"phone,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty"`
}

// Supply is a packing-supply product sold alongside moves.
type Supply struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Unit     string  `json:"unit,omitempty"`
	InStock  bool    `json:"inStock"`
	ImageURL string  `json:"imageUrl,omitempty"`
}

// ServiceArea is a region the company serves, used for coverage lookups.
type ServiceArea struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	State  string   `json:"state"`
	Cities []string `json:"cities,omitempty"`
	Zips   []string `json:"zips,omitempty"`
}

// AuthStatus reports whether the current bearer token is valid.
type AuthStatus struct {
	Authenticated bool      `json:"authenticated"`
	User          string    `json:"user,omitempty"`
	ExpiresAt     time.Time `json:"expiresAt,omitempty"`
}

// LoginRequest carries admin credentials to the auth endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the token grant returned by a successful login.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// errorBody is the structured failure payload the backend sends with 503
// responses: {"error":true,"statusCode":503,"message":"..."}.
type errorBody struct {
	Error      bool   `json:"error"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}
