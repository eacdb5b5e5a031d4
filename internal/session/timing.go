package session

import (
	"time"

	"github.com/peterkuimelis/frontline/internal/config"
)

// Timing holds the delays that pace a client.
type Timing struct {
	Settle            time.Duration // latch hold after an acknowledged write
	TacticSettle      time.Duration
	CrateSettle       time.Duration
	Reap              time.Duration // delay before sweeping casualties
	TacticReap        time.Duration
	HeartbeatInterval time.Duration
	StaleAfter        time.Duration // lobby entries without a heartbeat this long are hidden
	LobbyTTL          time.Duration
	AutomatedTTL      time.Duration
	EffectWindow      time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		Settle:            time.Second,
		TacticSettle:      2 * time.Second,
		CrateSettle:       500 * time.Millisecond,
		Reap:              time.Second,
		TacticReap:        2500 * time.Millisecond,
		HeartbeatInterval: 10 * time.Second,
		StaleAfter:        30 * time.Second,
		LobbyTTL:          24 * time.Hour,
		AutomatedTTL:      time.Hour,
		EffectWindow:      2 * time.Second,
	}
}

func TimingFromConfig(c config.TimingConfig) Timing {
	return Timing{
		Settle:            c.SettleDelay,
		TacticSettle:      c.TacticSettleDelay,
		CrateSettle:       c.CrateSettleDelay,
		Reap:              c.ReapDelay,
		TacticReap:        c.TacticReapDelay,
		HeartbeatInterval: c.HeartbeatInterval,
		StaleAfter:        c.StaleAfter,
		LobbyTTL:          c.LobbyTTL,
		AutomatedTTL:      c.AutomatedTTL,
		EffectWindow:      c.EffectWindow,
	}
}
