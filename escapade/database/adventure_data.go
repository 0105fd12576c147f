package database

import (
	"context"
	"fmt"
	"log/slog"
)

// InitializeAdventureData inserts or updates the built-in adventure catalog
// and its stops.
func (db *DB) InitializeAdventureData(ctx context.Context) error {
	type stopDef struct {
		ID        string
		Number    int
		Name      string
		Address   string
		Clue      string
		Hint      string
		Challenge string
	}

	type adventureDef struct {
		ID          string
		Name        string
		Description string
		Intensity   string
		Duration    string
		Reward      string
		Stops       []stopDef
	}

	adventures := []adventureDef{
		{
			ID:          "moonlit-downtown",
			Name:        "Moonlit Downtown Escape",
			Description: "A night-time chase through the city's most romantic corners.",
			Intensity:   "mild",
			Duration:    "2-3 hours",
			Reward:      "Downtown Duo badge",
			Stops: []stopDef{
				{"moonlit-downtown-1", 1, "The Old Clocktower", "1 Market Square", "Start where the city counts its hours.", "Look up when you hear the bells.", "Recreate your first-date photo under the clock."},
				{"moonlit-downtown-2", 2, "Luna Rooftop Bar", "88 High Street", "Climb to where the moon pours drinks.", "The elevator only goes to the 11th floor. Take the stairs.", "Order each other's drinks without asking what they want."},
				{"moonlit-downtown-3", 3, "Riverside Promenade", "Pier 4", "Follow the water until the lights double.", "The reflections are the second set of lights.", "Slow dance to the first song a stranger suggests."},
			},
		},
		{
			ID:          "secret-garden",
			Name:        "The Secret Garden Trail",
			Description: "Hidden courtyards, greenhouse whispers and one locked gate.",
			Intensity:   "spicy",
			Duration:    "3-4 hours",
			Reward:      "Greenhouse Keepers badge",
			Stops: []stopDef{
				{"secret-garden-1", 1, "Botanical Gate", "12 Orchard Lane", "The trail begins behind iron roses.", "The gate code is the founding year on the plaque.", "Exchange one secret you have never told each other."},
				{"secret-garden-2", 2, "The Glasshouse", "Orchard Lane Conservatory", "Find the room where winter never enters.", "Follow the warmest path.", "One of you is blindfolded; the other guides by voice only."},
				{"secret-garden-3", 3, "Wisteria Maze", "Conservatory Grounds", "Lose yourselves where purple hangs low.", "Left at every fork with a lantern.", "You may only speak in whispers until you find the center."},
				{"secret-garden-4", 4, "The Keeper's Bench", "Maze Center", "Rest where the keeper once read love letters.", "The bench faces the oldest tree.", "Write each other a six-word love letter and trade."},
			},
		},
		{
			ID:          "neon-nights",
			Name:        "Neon Nights",
			Description: "An after-dark dare circuit through the entertainment district.",
			Intensity:   "xxx",
			Duration:    "3-5 hours",
			Reward:      "Neon Royalty badge",
			Stops: []stopDef{
				{"neon-nights-1", 1, "Arcade Royale", "301 Electric Avenue", "Begin where quarters buy second chances.", "The token machine near the back takes bills.", "Loser of one air-hockey round owes a forfeit chosen now, paid at the last stop."},
				{"neon-nights-2", 2, "Vinyl Basement", "309 Electric Avenue", "Descend to where the music spins backwards.", "The staircase is behind the record wall.", "Request a song and dance like nobody is filming. Somebody is."},
				{"neon-nights-3", 3, "The Mirror Lounge", "4th floor, Hotel Meridian", "Climb to the room with a thousand of you.", "Ask the concierge for the lounge key.", "Hold eye contact for two full minutes. No laughing."},
				{"neon-nights-4", 4, "Sky Deck", "Roof, Hotel Meridian", "Finish above the neon.", "The last elevator stops one floor short.", "Pay all outstanding forfeits under the open sky."},
			},
		},
	}

	insertAdventure := `
        INSERT INTO adventures (
            id, name, description, intensity, duration, reward,
            created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6,
            CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
        ) ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            description = EXCLUDED.description,
            intensity = EXCLUDED.intensity,
            duration = EXCLUDED.duration,
            reward = EXCLUDED.reward,
            updated_at = CURRENT_TIMESTAMP;
    `

	insertStop := `
        INSERT INTO adventure_stops (
            id, adventure_id, stop_number, name, address, clue, hint, challenge,
            created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8,
            CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
        ) ON CONFLICT (id) DO UPDATE SET
            stop_number = EXCLUDED.stop_number,
            name = EXCLUDED.name,
            address = EXCLUDED.address,
            clue = EXCLUDED.clue,
            hint = EXCLUDED.hint,
            challenge = EXCLUDED.challenge,
            updated_at = CURRENT_TIMESTAMP;
    `

	for _, adv := range adventures {
		if _, err := db.ExecWithLog(ctx, insertAdventure,
			adv.ID, adv.Name, adv.Description, adv.Intensity, adv.Duration, adv.Reward,
		); err != nil {
			return fmt.Errorf("failed to upsert adventure %s: %w", adv.ID, err)
		}

		for _, stop := range adv.Stops {
			if _, err := db.ExecWithLog(ctx, insertStop,
				stop.ID, adv.ID, stop.Number, stop.Name, stop.Address,
				stop.Clue, stop.Hint, stop.Challenge,
			); err != nil {
				return fmt.Errorf("failed to upsert stop %s: %w", stop.ID, err)
			}
		}
	}

	slog.Info("Adventure catalog initialized/updated successfully", slog.Int("count", len(adventures)))
	return nil
}

// InitializeCardData inserts or updates the party-game card decks.
func (db *DB) InitializeCardData(ctx context.Context) error {
	type cardDef struct {
		ID        string
		Type      string
		Content   string
		Intensity string
		Category  string
	}

	cards := []cardDef{
		// Truth
		{"truth_mild_001", "truth", "What was your real first impression of me?", "mild", "origins"},
		{"truth_mild_002", "truth", "Which of my habits secretly makes you smile?", "mild", "affection"},
		{"truth_mild_003", "truth", "What song instantly reminds you of us?", "mild", "memories"},
		{"truth_spicy_001", "truth", "Describe the moment you knew you were attracted to me.", "spicy", "attraction"},
		{"truth_spicy_002", "truth", "What is one fantasy you have never said out loud?", "spicy", "desire"},
		{"truth_xxx_001", "truth", "What is the boldest thing you want to try with me this month?", "xxx", "desire"},

		// Dare
		{"dare_mild_001", "dare", "Give your partner a 60-second shoulder massage.", "mild", "touch"},
		{"dare_mild_002", "dare", "Reenact how you first greeted each other, in slow motion.", "mild", "play"},
		{"dare_mild_003", "dare", "Whisper three things you adore about your partner.", "mild", "affection"},
		{"dare_spicy_001", "dare", "Trade an item of clothing with your partner for the next round.", "spicy", "play"},
		{"dare_spicy_002", "dare", "Kiss your partner somewhere you never have before.", "spicy", "touch"},
		{"dare_xxx_001", "dare", "Let your partner choose your next dare with no veto.", "xxx", "surrender"},

		// Never have I ever
		{"never_mild_001", "never", "Never have I ever pretended to like a gift from my partner.", "mild", "confessions"},
		{"never_mild_002", "never", "Never have I ever stolen food off my partner's plate.", "mild", "play"},
		{"never_spicy_001", "never", "Never have I ever daydreamed about our next kiss at work.", "spicy", "desire"},
		{"never_spicy_002", "never", "Never have I ever flirted with my partner by text during dinner with others.", "spicy", "confessions"},
		{"never_xxx_001", "never", "Never have I ever wanted to skip the party and stay in.", "xxx", "desire"},
	}

	insertSQL := `
        INSERT INTO game_cards (
            id, card_type, content, intensity, category,
            created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5,
            CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
        ) ON CONFLICT (id) DO UPDATE SET
            card_type = EXCLUDED.card_type,
            content = EXCLUDED.content,
            intensity = EXCLUDED.intensity,
            category = EXCLUDED.category,
            updated_at = CURRENT_TIMESTAMP;
    `

	for _, c := range cards {
		if _, err := db.ExecWithLog(ctx, insertSQL,
			c.ID, c.Type, c.Content, c.Intensity, c.Category,
		); err != nil {
			return fmt.Errorf("failed to upsert card %s: %w", c.ID, err)
		}
	}

	slog.Info("Game card decks initialized/updated successfully", slog.Int("count", len(cards)))
	return nil
}
