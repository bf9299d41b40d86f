package gamestate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

var ErrBoardUnavailable = errors.New("game board unavailable")

// Scraper reads board snapshots from the battle page markup.
type Scraper struct {
	httpClient *http.Client
	boardURL   string
	logger     zerolog.Logger
}

// NewScraper creates a scraper for the given board URL.
func NewScraper(boardURL string, logger zerolog.Logger) *Scraper {
	return &Scraper{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		boardURL:   boardURL,
		logger:     logger.With().Str("component", "board-scraper").Logger(),
	}
}

// Snapshot fetches the board page and parses the observable game state.
func (s *Scraper) Snapshot(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.boardURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBoardUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrBoardUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse board page: %w", err)
	}

	return s.Parse(doc), nil
}

// Parse extracts a snapshot from a parsed board document.
func (s *Scraper) Parse(doc *goquery.Document) *Snapshot {
	snap := &Snapshot{Now: time.Now()}

	if card := doc.Find(".board .movie-card.current").First(); card.Length() > 0 {
		snap.CurrentTitle, snap.CurrentYear = parseMovieCard(card)
	}

	doc.Find(".board .movie-card.played").Each(func(_ int, card *goquery.Selection) {
		title, year := parseMovieCard(card)
		if title != "" {
			snap.Played = append(snap.Played, fmt.Sprintf("%s (%d)", title, year))
		}
	})

	doc.Find(".connections .link-chip.used").Each(func(_ int, chip *goquery.Selection) {
		name := strings.TrimSpace(chip.Text())
		if name != "" {
			snap.UsedLinks = append(snap.UsedLinks, name)
		}
	})

	snap.MyTurn = doc.Find(".turn-indicator.your-turn").Length() > 0
	snap.GameOver = doc.Find(".game-over-banner").Length() > 0

	s.logger.Trace().
		Str("current", snap.CurrentTitle).
		Int("played", len(snap.Played)).
		Int("usedLinks", len(snap.UsedLinks)).
		Bool("myTurn", snap.MyTurn).
		Bool("gameOver", snap.GameOver).
		Msg("Parsed board snapshot")

	return snap
}

// parseMovieCard reads the title and year from a movie card. The year comes
// from a .movie-year element, falling back to a "Title (1999)" suffix on
// the title text.
func parseMovieCard(card *goquery.Selection) (string, int) {
	title := strings.TrimSpace(card.Find(".movie-title").First().Text())
	yearText := strings.TrimSpace(card.Find(".movie-year").First().Text())

	if title == "" {
		title = strings.TrimSpace(card.Text())
	}

	year := parseYear(yearText)
	if year == 0 {
		title, year = splitTitleYear(title)
	}

	return title, year
}

// splitTitleYear splits a "Title (1999)" string into its parts.
func splitTitleYear(text string) (string, int) {
	open := strings.LastIndex(text, "(")
	end := strings.LastIndex(text, ")")
	if open < 0 || end < open {
		return text, 0
	}
	year := parseYear(text[open+1 : end])
	if year == 0 {
		return text, 0
	}
	return strings.TrimSpace(text[:open]), year
}

func parseYear(text string) int {
	text = strings.Trim(strings.TrimSpace(text), "()")
	year, err := strconv.Atoi(text)
	if err != nil || year < 1800 || year > 3000 {
		return 0
	}
	return year
}
