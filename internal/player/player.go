// Package player tracks progression: level and experience, login streaks,
// and the accelerated in-game clock that drives calendar effects.
package player

import (
	"math"
	"time"

	"github.com/talgya/bakerysim/internal/economy"
)

const (
	baseXPThreshold  = 100
	xpThresholdScale = 1.5
	levelBonusPer    = 1000

	firstLoginBonus  = 500
	streakBonusPer   = 50
	weeklyStreakStep = 7
	weeklyBonusPer   = 1000
	brokenLoginBonus = 100
	newYearBonus     = 10000

	// Game minutes advanced per real second.
	DefaultTimeScale = 10
)

// GameClock is the in-game calendar. Months are a flat 30 days.
type GameClock struct {
	Day       int     `json:"day"`
	Week      int     `json:"week"`
	Month     int     `json:"month"`
	Year      int     `json:"year"`
	DayOfWeek int     `json:"day_of_week"` // 1=Monday .. 7=Sunday
	HourOfDay float64 `json:"hour_of_day"`
}

// Weekend reports Saturday or Sunday.
func (c GameClock) Weekend() bool { return c.DayOfWeek >= 6 }

// ClockEvent is a calendar transition surfaced by Advance.
type ClockEvent int

const (
	EventNewDay ClockEvent = iota
	EventNoon
	EventWeekendSale
	EventNewYear
)

// Progress is the progression state.
type Progress struct {
	ledger *economy.Ledger

	Level       int     `json:"level"`
	Experience  int     `json:"experience"`
	NextLevelXP int     `json:"next_level_xp"`
	FirstLogin  string  `json:"first_login,omitempty"` // YYYY-MM-DD
	LastLogin   string  `json:"last_login,omitempty"`
	LoginStreak int     `json:"login_streak"`
	TotalLogins int     `json:"total_logins"`
	Clock       GameClock `json:"clock"`
	TimeScale   float64 `json:"time_scale"`
}

func New(ledger *economy.Ledger) *Progress {
	return &Progress{
		ledger:      ledger,
		Level:       1,
		NextLevelXP: baseXPThreshold,
		Clock: GameClock{
			Day: 1, Week: 1, Month: 1, Year: 1,
			DayOfWeek: 1, HourOfDay: 8,
		},
		TimeScale: DefaultTimeScale,
	}
}

// AddExperience grants XP and resolves any level-ups, crediting the level
// bonus for each. Returns the number of levels gained.
func (p *Progress) AddExperience(amount int) int {
	if amount <= 0 {
		return 0
	}
	p.Experience += amount
	gained := 0
	for p.Experience >= p.NextLevelXP {
		p.Experience -= p.NextLevelXP
		p.Level++
		gained++
		p.NextLevelXP = int(math.Floor(float64(p.NextLevelXP) * xpThresholdScale))
		p.ledger.Credit(float64(p.Level) * levelBonusPer)
	}
	return gained
}

// LoginResult reports what CheckLogin granted.
type LoginResult struct {
	First       bool
	Repeat      bool // already logged in today, nothing granted
	StreakKept  bool
	StreakBroke bool
	Streak      int
	Bonus       float64
}

// CheckLogin applies the daily login bonus. Consecutive-day logins grow
// the streak; a seven-day streak pays a larger bonus; a gap resets it.
func (p *Progress) CheckLogin(now time.Time) LoginResult {
	today := now.Format("2006-01-02")
	switch {
	case p.FirstLogin == "":
		p.FirstLogin = today
		p.LastLogin = today
		p.LoginStreak = 1
		p.TotalLogins = 1
		p.ledger.Credit(firstLoginBonus)
		return LoginResult{First: true, Streak: 1, Bonus: firstLoginBonus}
	case p.LastLogin == today:
		return LoginResult{Repeat: true, Streak: p.LoginStreak}
	}

	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	res := LoginResult{}
	if p.LastLogin == yesterday {
		p.LoginStreak++
		res.StreakKept = true
		res.Bonus = streakBonusPer * float64(p.LoginStreak)
		if p.LoginStreak%weeklyStreakStep == 0 {
			res.Bonus += weeklyBonusPer * float64(p.LoginStreak/weeklyStreakStep)
		}
	} else {
		p.LoginStreak = 1
		res.StreakBroke = true
		res.Bonus = brokenLoginBonus
	}
	p.ledger.Credit(res.Bonus)
	p.LastLogin = today
	p.TotalLogins++
	res.Streak = p.LoginStreak
	return res
}

// Advance moves the game clock forward by the given number of game
// minutes, returning any calendar events crossed.
func (p *Progress) Advance(minutes float64) []ClockEvent {
	var events []ClockEvent
	c := &p.Clock

	beforeHour := int(c.HourOfDay)
	c.HourOfDay += minutes / 60

	for c.HourOfDay >= 24 {
		c.HourOfDay -= 24
		c.Day++
		c.DayOfWeek = c.DayOfWeek%7 + 1
		if c.DayOfWeek == 1 {
			c.Week++
		}
		if c.Day > 30 {
			c.Day = 1
			c.Month++
			if c.Month > 12 {
				c.Month = 1
				c.Year++
			}
		}
		events = append(events, EventNewDay)
		if c.Day == 1 && c.Month == 1 {
			p.ledger.Credit(newYearBonus)
			events = append(events, EventNewYear)
		}
		beforeHour = -1 // day rolled over, hour comparisons restart
	}

	afterHour := int(c.HourOfDay)
	if beforeHour < 12 && afterHour >= 12 {
		events = append(events, EventNoon)
	}
	if p.Clock.Weekend() && beforeHour < 10 && afterHour >= 10 {
		events = append(events, EventWeekendSale)
	}
	return events
}

// OrderCadenceMultiplier scales the order-generation delay from the game
// clock: lunch rush shortens it, night lengthens it, weekends shorten it.
func (p *Progress) OrderCadenceMultiplier() float64 {
	m := 1.0
	hour := p.Clock.HourOfDay
	if hour >= 11 && hour <= 14 {
		m = 0.7
	} else if hour >= 22 || hour <= 6 {
		m = 1.5
	}
	if p.Clock.Weekend() {
		m *= 0.8
	}
	return m
}

// Snapshot returns the persistable progression state.
type Snapshot struct {
	Level       int       `json:"level"`
	Experience  int       `json:"experience"`
	NextLevelXP int       `json:"next_level_xp"`
	FirstLogin  string    `json:"first_login,omitempty"`
	LastLogin   string    `json:"last_login,omitempty"`
	LoginStreak int       `json:"login_streak"`
	TotalLogins int       `json:"total_logins"`
	Clock       GameClock `json:"clock"`
}

func (p *Progress) Snapshot() Snapshot {
	return Snapshot{
		Level:       p.Level,
		Experience:  p.Experience,
		NextLevelXP: p.NextLevelXP,
		FirstLogin:  p.FirstLogin,
		LastLogin:   p.LastLogin,
		LoginStreak: p.LoginStreak,
		TotalLogins: p.TotalLogins,
		Clock:       p.Clock,
	}
}

func (p *Progress) Restore(s Snapshot) {
	if s.Level >= 1 {
		p.Level = s.Level
	}
	if s.NextLevelXP >= baseXPThreshold {
		p.NextLevelXP = s.NextLevelXP
	}
	p.Experience = s.Experience
	p.FirstLogin = s.FirstLogin
	p.LastLogin = s.LastLogin
	p.LoginStreak = s.LoginStreak
	p.TotalLogins = s.TotalLogins
	if s.Clock.Day >= 1 {
		p.Clock = s.Clock
	}
}
