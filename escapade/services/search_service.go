package services

import (
	"context"
	"strings"

	"github.com/escapadeapp/escapade/escapade/database/models"
	"github.com/escapadeapp/escapade/escapade/database/repositories"
	"github.com/sahilm/fuzzy"
)

// cardSearchItems implements fuzzy.Source over game cards.
type cardSearchItems []cardSearchItem

type cardSearchItem struct {
	Card *models.GameCard
	Text string
}

func (items cardSearchItems) Len() int {
	return len(items)
}

func (items cardSearchItems) String(i int) string {
	return items[i].Text
}

// adventureSearchItems implements fuzzy.Source over adventures.
type adventureSearchItems []*models.Adventure

func (items adventureSearchItems) Len() int {
	return len(items)
}

func (items adventureSearchItems) String(i int) string {
	return strings.ToLower(items[i].Name + " " + items[i].Description)
}

// SearchService provides fuzzy lookup over the content catalog so players
// can find a card or adventure from a few remembered words.
type SearchService struct {
	adventures repositories.AdventureRepository
}

func NewSearchService(adventures repositories.AdventureRepository) *SearchService {
	return &SearchService{adventures: adventures}
}

// SearchCards returns cards matching the query, best first, optionally
// restricted to a deck and intensity.
func (s *SearchService) SearchCards(ctx context.Context, query string, cardType models.GameCardType, intensity models.IntensityLevel) ([]*models.GameCard, error) {
	cards, err := s.adventures.GetCards(ctx, cardType, intensity)
	if err != nil {
		return nil, err
	}

	query = normalizeQuery(query)
	if query == "" {
		return cards, nil
	}

	items := make(cardSearchItems, len(cards))
	for i, card := range cards {
		items[i] = cardSearchItem{
			Card: card,
			Text: normalizeQuery(card.Content + " " + card.Category),
		}
	}

	matches := fuzzy.FindFrom(query, items)
	results := make([]*models.GameCard, len(matches))
	for i, match := range matches {
		results[i] = items[match.Index].Card
	}
	return results, nil
}

// SearchAdventures returns adventures matching the query, best first. An
// empty query returns the whole catalog.
func (s *SearchService) SearchAdventures(ctx context.Context, query string) ([]*models.Adventure, error) {
	adventures, err := s.adventures.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	query = normalizeQuery(query)
	if query == "" {
		return adventures, nil
	}

	items := adventureSearchItems(adventures)
	matches := fuzzy.FindFrom(query, items)
	results := make([]*models.Adventure, len(matches))
	for i, match := range matches {
		results[i] = adventures[match.Index]
	}
	return results, nil
}

func normalizeQuery(query string) string {
	normalized := strings.ToLower(query)
	return strings.Join(strings.Fields(normalized), " ")
}
