package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFitnessBreakthrough BookmarkType = "fitness_breakthrough"
	BookmarkForageBreakthrough  BookmarkType = "forage_breakthrough"
	BookmarkKillerSurge         BookmarkType = "killer_surge"
	BookmarkSurvivalCrash       BookmarkType = "survival_crash"
	BookmarkFitnessPlateau      BookmarkType = "fitness_plateau"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `json:"type"`
	Generation  int          `json:"gen"`
	Description string       `json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"generation", b.Generation,
		"description", b.Description,
	)
}

// BookmarkDetector detects notable generations in a run.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []GenerationRecord
	historySize int
	historyIdx  int
	historyFull bool

	// State tracking
	recentKillerMin    int // minimum killer count in recent history, -1 = unset
	recentSurvivalPeak int // peak survivor count in recent history
	plateauCount       int // consecutive generations with flat mean fitness
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for plateau detection
	}
	return &BookmarkDetector{
		history:         make([]GenerationRecord, historySize),
		historySize:     historySize,
		recentKillerMin: -1,
	}
}

// Check analyzes the latest generation and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(rec GenerationRecord) []Bookmark {
	var bookmarks []Bookmark

	if bd.historyFull || bd.historyIdx > 0 {
		for _, check := range []func(GenerationRecord) *Bookmark{
			bd.checkFitnessBreakthrough,
			bd.checkForageBreakthrough,
			bd.checkKillerSurge,
			bd.checkSurvivalCrash,
			bd.checkFitnessPlateau,
		} {
			if b := check(rec); b != nil {
				bookmarks = append(bookmarks, *b)
			}
		}
	}

	bd.addToHistory(rec)

	if bd.recentKillerMin < 0 || rec.Killers < bd.recentKillerMin {
		bd.recentKillerMin = rec.Killers
	}
	if rec.Survived > bd.recentSurvivalPeak {
		bd.recentSurvivalPeak = rec.Survived
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(rec GenerationRecord) {
	bd.history[bd.historyIdx] = rec
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

// getHistory returns the stored generations, oldest first.
func (bd *BookmarkDetector) getHistory() []GenerationRecord {
	if !bd.historyFull {
		return bd.history[:bd.historyIdx]
	}
	return append(append([]GenerationRecord(nil), bd.history[bd.historyIdx:]...), bd.history[:bd.historyIdx]...)
}

func (bd *BookmarkDetector) checkFitnessBreakthrough(rec GenerationRecord) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.FitnessMax
	}
	avg := total / float64(len(history))
	if avg <= 0 {
		return nil
	}

	if rec.FitnessMax > avg*1.5 {
		return &Bookmark{
			Type:        BookmarkFitnessBreakthrough,
			Generation:  rec.Generation,
			Description: fmt.Sprintf("Best fitness %.2f is %.1fx average (%.2f)", rec.FitnessMax, rec.FitnessMax/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkForageBreakthrough(rec GenerationRecord) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total int
	for _, h := range history {
		total += h.FoodEaten
	}
	avg := float64(total) / float64(len(history))
	if avg == 0 {
		return nil
	}

	if float64(rec.FoodEaten) > avg*2.0 && rec.FoodEaten >= 3 {
		return &Bookmark{
			Type:        BookmarkForageBreakthrough,
			Generation:  rec.Generation,
			Description: fmt.Sprintf("Food eaten %d is %.1fx average (%.1f)", rec.FoodEaten, float64(rec.FoodEaten)/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkKillerSurge(rec GenerationRecord) *Bookmark {
	if bd.recentKillerMin < 0 || bd.recentKillerMin > 1 {
		return nil
	}

	threshold := max(bd.recentKillerMin*3, 3)
	if rec.Killers >= threshold {
		// Reset the minimum after triggering
		oldMin := bd.recentKillerMin
		bd.recentKillerMin = rec.Killers

		return &Bookmark{
			Type:        BookmarkKillerSurge,
			Generation:  rec.Generation,
			Description: fmt.Sprintf("Killer genomes rose from %d to %d", oldMin, rec.Killers),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkSurvivalCrash(rec GenerationRecord) *Bookmark {
	if bd.recentSurvivalPeak == 0 {
		return nil
	}

	drop := 1.0 - float64(rec.Survived)/float64(bd.recentSurvivalPeak)
	if drop > 0.30 && rec.Survived < bd.recentSurvivalPeak-2 {
		// Reset peak after crash
		oldPeak := bd.recentSurvivalPeak
		bd.recentSurvivalPeak = rec.Survived

		return &Bookmark{
			Type:        BookmarkSurvivalCrash,
			Generation:  rec.Generation,
			Description: fmt.Sprintf("Survivors crashed %.0f%% from peak %d to %d", drop*100, oldPeak, rec.Survived),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkFitnessPlateau(rec GenerationRecord) *Bookmark {
	history := bd.getHistory()
	if len(history) < 4 {
		return nil
	}

	recent := make([]float64, 0, 4)
	for _, h := range history[len(history)-3:] {
		recent = append(recent, h.FitnessMean)
	}
	recent = append(recent, rec.FitnessMean)

	mean, std := stat.PopMeanStdDev(recent, nil)
	if mean > 0 && std/mean < 0.05 {
		bd.plateauCount++
	} else {
		bd.plateauCount = 0
	}

	if bd.plateauCount == 5 { // trigger exactly once per plateau
		return &Bookmark{
			Type:        BookmarkFitnessPlateau,
			Generation:  rec.Generation,
			Description: fmt.Sprintf("Mean fitness flat at %.2f over 5+ generations", mean),
		}
	}
	return nil
}
