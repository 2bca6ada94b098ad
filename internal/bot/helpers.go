package bot

import (
	"fmt"

	"github.com/ducminhle1904/crypto-hedge-bot/internal/state"
)

// restoreState rehydrates the ledger and hedge pairs from the last snapshot.
// Pair legs are re-linked to the ledger's trade instances so an exit settles
// exactly one object.
func (bot *HedgeBot) restoreState() error {
	saved, err := bot.store.Load()
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	if saved == nil {
		return nil
	}

	bot.ledger.Restore(saved.Trades, saved.Balance)
	for _, pair := range saved.Pairs {
		if pair.LongTrade != nil {
			if trade, ok := bot.ledger.Get(pair.LongTrade.ID); ok {
				pair.LongTrade = trade
			}
		}
		if pair.ShortTrade != nil {
			if trade, ok := bot.ledger.Get(pair.ShortTrade.ID); ok {
				pair.ShortTrade = trade
			}
		}
	}
	if err := bot.hedgeMgr.Restore(saved.Pairs); err != nil {
		return fmt.Errorf("failed to restore hedge pairs: %w", err)
	}
	if !saved.SessionStart.IsZero() {
		bot.sessionStart = saved.SessionStart
	}

	bot.log.Info("restored state: %d trades, %d pairs, balance $%.2f",
		len(saved.Trades), len(saved.Pairs), saved.Balance)
	return nil
}

func (bot *HedgeBot) saveState() error {
	return bot.store.Save(&state.BotState{
		SessionStart: bot.sessionStart,
		Balance:      bot.ledger.Balance(),
		Trades:       bot.ledger.AllTrades(),
		Pairs:        bot.hedgeMgr.AllPairs(),
	})
}
