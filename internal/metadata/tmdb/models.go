package tmdb

// SearchMoviesResponse is the response from TMDB movie search.
type SearchMoviesResponse struct {
	Page         int           `json:"page"`
	Results      []MovieResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// MovieResult is a movie from TMDB search results.
type MovieResult struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	Overview      string  `json:"overview"`
	ReleaseDate   string  `json:"release_date"`
	VoteAverage   float64 `json:"vote_average"`
	VoteCount     int     `json:"vote_count"`
	Popularity    float64 `json:"popularity"`
	Adult         bool    `json:"adult"`
	GenreIDs      []int   `json:"genre_ids"`
}

// MovieDetails is the detailed movie info from TMDB.
type MovieDetails struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	Popularity  float64 `json:"popularity"`
	Runtime     int     `json:"runtime"`
	Status      string  `json:"status"`
	ImdbID      string  `json:"imdb_id"`
	Genres      []Genre `json:"genres"`
}

// Genre is a TMDB genre record.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CreditsResponse is the cast/crew listing for a movie.
type CreditsResponse struct {
	ID   int          `json:"id"`
	Cast []CastCredit `json:"cast"`
	Crew []CrewCredit `json:"crew"`
}

// CastCredit is one performer credit on a movie.
type CastCredit struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Character  string  `json:"character"`
	Popularity float64 `json:"popularity"`
	Order      int     `json:"order"`
}

// CrewCredit is one crew credit on a movie.
type CrewCredit struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Job        string  `json:"job"`
	Department string  `json:"department"`
	Popularity float64 `json:"popularity"`
}

// PersonCreditsResponse is a person's combined movie credits.
type PersonCreditsResponse struct {
	ID   int                `json:"id"`
	Cast []PersonCastCredit `json:"cast"`
	Crew []PersonCrewCredit `json:"crew"`
}

// PersonCastCredit is one film a person performed in.
type PersonCastCredit struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Character   string  `json:"character"`
	ReleaseDate string  `json:"release_date"`
	Popularity  float64 `json:"popularity"`
	GenreIDs    []int   `json:"genre_ids"`
}

// PersonCrewCredit is one film a person worked on as crew.
type PersonCrewCredit struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Job         string  `json:"job"`
	ReleaseDate string  `json:"release_date"`
	Popularity  float64 `json:"popularity"`
	GenreIDs    []int   `json:"genre_ids"`
}

// ErrorResponse is the TMDB error body.
type ErrorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

// NormalizedMovieResult is a search result reduced to what the bundle
// builder needs.
type NormalizedMovieResult struct {
	ID         int
	Title      string
	Year       int
	Popularity float64
}

// NormalizedMovieDetail carries the genre names the priority filter
// matches against.
type NormalizedMovieDetail struct {
	ID     int
	Title  string
	Year   int
	Genres []string
}

// NormalizedCastMember is a performer on the current movie.
type NormalizedCastMember struct {
	PersonID   int
	Name       string
	Popularity float64
}

// NormalizedCrewMember is a crew member on the current movie.
type NormalizedCrewMember struct {
	PersonID   int
	Name       string
	Job        string
	Popularity float64
}

// NormalizedCredits is the full cast/crew of a movie.
type NormalizedCredits struct {
	Cast []NormalizedCastMember
	Crew []NormalizedCrewMember
}

// NormalizedPersonCredit is one film in a person's filmography. Role is
// "performer" for cast entries and the crew job otherwise.
type NormalizedPersonCredit struct {
	FilmID     int
	Title      string
	Year       int
	Genres     []string
	Popularity float64
	Role       string
}

// NormalizedPersonCredits is a person's combined credits split by role.
type NormalizedPersonCredits struct {
	PersonID int
	Cast     []NormalizedPersonCredit
	Crew     []NormalizedPersonCredit
}
