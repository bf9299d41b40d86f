package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/cinelink/cinelink/internal/config"
	"github.com/cinelink/cinelink/internal/ratelimit"
)

var (
	ErrAPIKeyMissing  = errors.New("TMDB API key is not configured")
	ErrMovieNotFound  = errors.New("movie not found")
	ErrPersonNotFound = errors.New("person not found")
	ErrAPIError       = errors.New("TMDB API error")
	ErrRateLimited    = errors.New("TMDB API rate limited")
)

// CredentialSource supplies the bearer credential at call time, so a key
// saved while the process runs takes effect without a restart.
type CredentialSource interface {
	APIKey(ctx context.Context) (string, error)
}

// StaticKey is a CredentialSource backed by a fixed string.
type StaticKey string

// APIKey returns the fixed key.
func (k StaticKey) APIKey(_ context.Context) (string, error) {
	return string(k), nil
}

// Client is a TMDB API client. Every request passes through the shared
// throttle before being issued.
type Client struct {
	httpClient *http.Client
	config     config.TMDBConfig
	creds      CredentialSource
	throttle   *ratelimit.Throttle
	logger     zerolog.Logger
}

// NewClient creates a new TMDB client.
func NewClient(cfg config.TMDBConfig, creds CredentialSource, throttle *ratelimit.Throttle, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		config:   cfg,
		creds:    creds,
		throttle: throttle,
		logger:   logger.With().Str("component", "tmdb").Logger(),
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "tmdb"
}

// IsConfigured returns true if a credential is currently available.
func (c *Client) IsConfigured(ctx context.Context) bool {
	key, err := c.creds.APIKey(ctx)
	return err == nil && key != ""
}

// SearchMovies searches for movies by title with an optional year filter.
func (c *Client) SearchMovies(ctx context.Context, query string, year int) ([]NormalizedMovieResult, error) {
	endpoint := fmt.Sprintf("%s/search/movie", c.config.BaseURL)
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var response SearchMoviesResponse
	if err := c.doRequest(ctx, endpoint, params, &response); err != nil {
		return nil, err
	}

	results := make([]NormalizedMovieResult, len(response.Results))
	for i, movie := range response.Results {
		results[i] = NormalizedMovieResult{
			ID:         movie.ID,
			Title:      movie.Title,
			Year:       yearOf(movie.ReleaseDate),
			Popularity: movie.Popularity,
		}
	}

	c.logger.Debug().
		Str("query", query).
		Int("year", year).
		Int("results", len(results)).
		Msg("Movie search completed")

	return results, nil
}

// GetMovieDetails gets detailed movie info, including genre names, by TMDB ID.
func (c *Client) GetMovieDetails(ctx context.Context, id int) (*NormalizedMovieDetail, error) {
	endpoint := fmt.Sprintf("%s/movie/%d", c.config.BaseURL, id)

	var details MovieDetails
	if err := c.doRequest(ctx, endpoint, nil, &details); err != nil {
		return nil, err
	}

	genres := make([]string, len(details.Genres))
	for i, g := range details.Genres {
		genres[i] = g.Name
	}

	result := &NormalizedMovieDetail{
		ID:     details.ID,
		Title:  details.Title,
		Year:   yearOf(details.ReleaseDate),
		Genres: genres,
	}

	c.logger.Debug().
		Int("id", id).
		Str("title", result.Title).
		Msg("Got movie details")

	return result, nil
}

// GetMovieCredits gets the full cast and crew for a movie.
func (c *Client) GetMovieCredits(ctx context.Context, id int) (*NormalizedCredits, error) {
	endpoint := fmt.Sprintf("%s/movie/%d/credits", c.config.BaseURL, id)

	var response CreditsResponse
	if err := c.doRequest(ctx, endpoint, nil, &response); err != nil {
		return nil, err
	}

	credits := &NormalizedCredits{
		Cast: make([]NormalizedCastMember, len(response.Cast)),
		Crew: make([]NormalizedCrewMember, len(response.Crew)),
	}
	for i, member := range response.Cast {
		credits.Cast[i] = NormalizedCastMember{
			PersonID:   member.ID,
			Name:       member.Name,
			Popularity: member.Popularity,
		}
	}
	for i, member := range response.Crew {
		credits.Crew[i] = NormalizedCrewMember{
			PersonID:   member.ID,
			Name:       member.Name,
			Job:        member.Job,
			Popularity: member.Popularity,
		}
	}

	c.logger.Debug().
		Int("id", id).
		Int("cast", len(credits.Cast)).
		Int("crew", len(credits.Crew)).
		Msg("Got movie credits")

	return credits, nil
}

// GetPersonCredits gets a person's combined movie credits.
func (c *Client) GetPersonCredits(ctx context.Context, personID int) (*NormalizedPersonCredits, error) {
	endpoint := fmt.Sprintf("%s/person/%d/movie_credits", c.config.BaseURL, personID)

	var response PersonCreditsResponse
	if err := c.doRequest(ctx, endpoint, nil, &response); err != nil {
		if errors.Is(err, ErrMovieNotFound) {
			return nil, ErrPersonNotFound
		}
		return nil, err
	}

	credits := &NormalizedPersonCredits{
		PersonID: personID,
		Cast:     make([]NormalizedPersonCredit, len(response.Cast)),
		Crew:     make([]NormalizedPersonCredit, len(response.Crew)),
	}
	for i, credit := range response.Cast {
		credits.Cast[i] = NormalizedPersonCredit{
			FilmID:     credit.ID,
			Title:      credit.Title,
			Year:       yearOf(credit.ReleaseDate),
			Genres:     GenreNames(credit.GenreIDs),
			Popularity: credit.Popularity,
			Role:       "performer",
		}
	}
	for i, credit := range response.Crew {
		credits.Crew[i] = NormalizedPersonCredit{
			FilmID:     credit.ID,
			Title:      credit.Title,
			Year:       yearOf(credit.ReleaseDate),
			Genres:     GenreNames(credit.GenreIDs),
			Popularity: credit.Popularity,
			Role:       credit.Job,
		}
	}

	c.logger.Debug().
		Int("personId", personID).
		Int("cast", len(credits.Cast)).
		Int("crew", len(credits.Crew)).
		Msg("Got person credits")

	return credits, nil
}

// doRequest waits on the throttle, performs an HTTP GET request with the
// bearer credential, and decodes the JSON response.
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	key, err := c.creds.APIKey(ctx)
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	if key == "" {
		return ErrAPIKeyMissing
	}

	if err := c.throttle.Wait(ctx); err != nil {
		return err
	}

	reqURL := endpoint
	if len(params) > 0 {
		reqURL = fmt.Sprintf("%s?%s", endpoint, params.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint).Msg("HTTP request failed")
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			c.logger.Error().
				Int("status", resp.StatusCode).
				Str("message", errResp.StatusMessage).
				Msg("TMDB API error")
		}

		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrMovieNotFound
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: invalid API key", ErrAPIError)
		case http.StatusTooManyRequests:
			return ErrRateLimited
		default:
			return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// yearOf extracts the year from a TMDB YYYY-MM-DD release date.
// Returns 0 when the date is missing or malformed.
func yearOf(releaseDate string) int {
	if len(releaseDate) < 4 {
		return 0
	}
	year, _ := strconv.Atoi(releaseDate[:4])
	return year
}
