package gamification

import (
	"math"

	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL CURVE (геометрическая кривая уровней)
// ══════════════════════════════════════════════════════════════════════════════

// LevelCurve задаёт стоимость уровней: переход с уровня n на n+1 стоит
// floor(Base * Multiplier^(n-1)) очков. Уровень - чистая функция от суммы
// очков и параметров кривой; он не хранится и не инкрементируется.
type LevelCurve struct {
	// Base - стоимость перехода с 1-го уровня на 2-й.
	Base int

	// Multiplier - геометрический множитель стоимости.
	Multiplier float64
}

// DefaultLevelCurve - стандартная кривая: 100 очков за второй уровень,
// каждый следующий в полтора раза дороже.
func DefaultLevelCurve() LevelCurve {
	return LevelCurve{Base: 100, Multiplier: 1.5}
}

// Validate проверяет параметры кривой.
func (c LevelCurve) Validate() error {
	if c.Base <= 0 {
		return shared.NewDomainError("gamification", "level_curve", shared.ErrValidation, "level curve base must be positive")
	}
	if c.Multiplier < 1.0 {
		return shared.NewDomainError("gamification", "level_curve", shared.ErrValidation, "level curve multiplier must be >= 1.0")
	}
	return nil
}

// Threshold - стоимость перехода с уровня n на n+1.
func (c LevelCurve) Threshold(n int) int {
	if n < 1 {
		return 0
	}
	return int(math.Floor(float64(c.Base) * math.Pow(c.Multiplier, float64(n-1))))
}

// CumulativeThreshold - суммарные очки, необходимые для достижения
// уровня n. Уровень 1 бесплатен: CumulativeThreshold(1) == 0.
func (c LevelCurve) CumulativeThreshold(n int) int {
	total := 0
	for i := 1; i < n; i++ {
		total += c.Threshold(i)
	}
	return total
}

// LevelForPoints - уровень как максимальное n, для которого
// CumulativeThreshold(n) <= points. Минимальный уровень - 1, в том числе
// при нуле очков: 0 очков -> уровень 1, 100 -> 2, 250 -> 3.
func (c LevelCurve) LevelForPoints(points int) int {
	if points < 0 {
		points = 0
	}

	level := 1
	cumulative := 0
	for {
		cost := c.Threshold(level)
		if cost <= 0 {
			// Вырожденная кривая: выше подняться невозможно.
			return level
		}
		if cumulative+cost > points {
			return level
		}
		cumulative += cost
		level++
	}
}

// ProgressToNext - доля пути до следующего уровня, 0.0-1.0.
func (c LevelCurve) ProgressToNext(points int) float64 {
	if points < 0 {
		points = 0
	}

	level := c.LevelForPoints(points)
	cost := c.Threshold(level)
	if cost <= 0 {
		return 0
	}

	into := points - c.CumulativeThreshold(level)
	progress := float64(into) / float64(cost)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

// PointsToNext - сколько очков осталось до следующего уровня.
func (c LevelCurve) PointsToNext(points int) int {
	if points < 0 {
		points = 0
	}
	level := c.LevelForPoints(points)
	remaining := c.CumulativeThreshold(level) + c.Threshold(level) - points
	if remaining < 0 {
		return 0
	}
	return remaining
}
