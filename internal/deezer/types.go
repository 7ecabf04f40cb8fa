package deezer

// Track represents a Deezer track with its 30-second preview URL.
type Track struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Preview string `json:"preview"`
	Artist  Artist `json:"artist"`
	Album   Album  `json:"album"`
}

// Artist is the artist slice of a Deezer track.
type Artist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Album is the album slice of a Deezer track.
type Album struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Cover string `json:"cover_medium"`
}

// searchResponse is the JSON response for /search.
type searchResponse struct {
	Data  []Track `json:"data"`
	Total int     `json:"total"`
}

// apiError represents a Deezer API error response.
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}
