// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eduhub/eduhub-analytics/internal/domain/catalog"
	"github.com/eduhub/eduhub-analytics/internal/domain/completion"
	"github.com/eduhub/eduhub-analytics/internal/domain/gamification"
	"github.com/eduhub/eduhub-analytics/internal/domain/progress"
	"github.com/eduhub/eduhub-analytics/internal/domain/shared"
	"github.com/eduhub/eduhub-analytics/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD COMPLETION COMMAND
// Единственная операция записи движка: отчёт о прохождении урока.
// Идемпотентна - повторная доставка того же отчёта не меняет состояние
// и не начисляет очки второй раз.
// ══════════════════════════════════════════════════════════════════════════════

// RecordCompletionCommand содержит отчёт о прохождении урока.
type RecordCompletionCommand struct {
	// StudentID - идентификатор студента.
	StudentID string

	// LessonID - идентификатор урока.
	LessonID string

	// ProgressPercentage - заявленный прогресс по уроку (0-100).
	// Сливается по максимуму: откатить прогресс отчётом нельзя.
	ProgressPercentage float64

	// TimeSpentDeltaMinutes - сколько минут добавить к накопленному
	// времени. Отрицательное значение отклоняет отчёт целиком.
	TimeSpentDeltaMinutes int

	// QuizScore - результат квиза (0-100), nil если квиза не было.
	QuizScore *int

	// Timestamp - когда произошёл прогресс (ноль = сейчас).
	Timestamp time.Time

	// CorrelationID для трассировки.
	CorrelationID string
}

// Validate проверяет команду.
func (c RecordCompletionCommand) Validate() error {
	if _, err := shared.NewStudentID(c.StudentID); err != nil {
		return fmt.Errorf("record_completion: %w", err)
	}
	if _, err := shared.NewLessonID(c.LessonID); err != nil {
		return fmt.Errorf("record_completion: %w", err)
	}
	report := completion.Report{
		ProgressPercentage:    c.ProgressPercentage,
		TimeSpentDeltaMinutes: c.TimeSpentDeltaMinutes,
		QuizScore:             c.QuizScore,
	}
	if err := report.Validate(); err != nil {
		return fmt.Errorf("record_completion: %w", err)
	}
	return nil
}

// RecordCompletionResult - результат записи отчёта.
type RecordCompletionResult struct {
	// Record - состояние записи журнала после слияния.
	Record *completion.CompletionRecord

	// FirstCompletion - урок впервые дошёл до 100%.
	FirstCompletion bool

	// PointsAwarded - начислено очков этим отчётом (включая бонусы бейджей).
	PointsAwarded int

	// NewBadges - бейджи, открытые этим отчётом.
	NewBadges []*gamification.Badge

	// LevelBefore / LevelAfter - уровень до и после начислений.
	LevelBefore int
	LevelAfter  int

	// Warnings - нефатальные проблемы (висячая ссылка на урок,
	// недоступный каталог). Запись при этом выполнена.
	Warnings []shared.Warning

	// Events - опубликованные доменные события.
	Events []shared.Event
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// RecordCompletionHandler обрабатывает RecordCompletionCommand.
//
// Порядок шагов фиксирован: валидация -> разрешение принадлежности ->
// апсерт журнала -> начисление очков за переходы -> оценка бейджей ->
// публикация событий. Геймификация и рейтинг - best-effort: их ошибки
// логируются, но записанный журнал не откатывают.
type RecordCompletionHandler struct {
	completionRepo completion.Repository
	resolver       catalog.Resolver
	pointRepo      gamification.PointEventRepository
	badgeRepo      gamification.BadgeRepository
	leaderboard    gamification.Leaderboard
	eventPublisher shared.EventPublisher
	log            *logger.Logger

	pointsConfig gamification.PointsConfig
	levelCurve   gamification.LevelCurve
	badgeDefs    []gamification.BadgeDefinition
}

// NewRecordCompletionHandler создаёт обработчик.
func NewRecordCompletionHandler(
	completionRepo completion.Repository,
	resolver catalog.Resolver,
	pointRepo gamification.PointEventRepository,
	badgeRepo gamification.BadgeRepository,
	leaderboard gamification.Leaderboard,
	eventPublisher shared.EventPublisher,
	log *logger.Logger,
	pointsConfig gamification.PointsConfig,
	levelCurve gamification.LevelCurve,
) *RecordCompletionHandler {
	if pointsConfig == (gamification.PointsConfig{}) {
		pointsConfig = gamification.DefaultPointsConfig()
	}
	if levelCurve == (gamification.LevelCurve{}) {
		levelCurve = gamification.DefaultLevelCurve()
	}

	return &RecordCompletionHandler{
		completionRepo: completionRepo,
		resolver:       resolver,
		pointRepo:      pointRepo,
		badgeRepo:      badgeRepo,
		leaderboard:    leaderboard,
		eventPublisher: eventPublisher,
		log:            log,
		pointsConfig:   pointsConfig,
		levelCurve:     levelCurve,
		badgeDefs:      gamification.DefaultBadgeDefinitions(),
	}
}

// Handle выполняет команду.
func (h *RecordCompletionHandler) Handle(ctx context.Context, cmd RecordCompletionCommand) (*RecordCompletionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "RecordCompletion", shared.ErrValidation, "invalid report", err)
	}

	now := time.Now().UTC()
	studentID := shared.StudentID(cmd.StudentID)
	lessonID := shared.LessonID(cmd.LessonID)

	result := &RecordCompletionResult{}

	// Разрешаем принадлежность урока. Неизвестный урок или лежащий
	// каталог не блокируют запись: журнал принимает отчёт, а результат
	// несёт предупреждение.
	hier := h.resolveHierarchy(ctx, lessonID, result)

	report := completion.Report{
		ProgressPercentage:    cmd.ProgressPercentage,
		TimeSpentDeltaMinutes: cmd.TimeSpentDeltaMinutes,
		QuizScore:             cmd.QuizScore,
		Timestamp:             cmd.Timestamp,
	}

	upserted, err := h.completionRepo.Upsert(ctx, studentID, lessonID, report, hier, now)
	if err != nil {
		return nil, shared.WrapError("command", "RecordCompletion", shared.ErrInvalidState, "ledger upsert failed", err)
	}

	result.Record = upserted.Record
	result.FirstCompletion = upserted.Outcome.FirstCompletion

	// Начисления и бейджи. Любая ошибка здесь - уже после успешной
	// записи журнала, поэтому только логируется.
	h.awardPoints(ctx, studentID, lessonID, upserted, result, now)
	h.evaluateBadges(ctx, studentID, result, now)
	h.updateLeaderboard(ctx, studentID, result)

	// Доменные события.
	recorded := shared.NewCompletionRecordedEvent(
		cmd.StudentID, cmd.LessonID, upserted.Record.CourseID.String(),
		upserted.Record.ProgressPercentage, upserted.Outcome.FirstCompletion,
	)
	if cmd.CorrelationID != "" {
		recorded.BaseEvent = recorded.BaseEvent.WithCorrelationID(cmd.CorrelationID)
	}
	result.Events = append(result.Events, recorded)

	if upserted.Outcome.FirstCompletion {
		result.Events = append(result.Events, shared.NewLessonCompletedEvent(
			cmd.StudentID, cmd.LessonID, upserted.Record.CourseID.String(),
			upserted.Record.TimeSpentMinutes,
		))
	}

	for _, event := range result.Events {
		if err := h.eventPublisher.Publish(event); err != nil && h.log != nil {
			h.log.Warn("failed to publish event",
				logger.String("event_type", string(event.EventType())),
				logger.Err(err),
			)
		}
	}

	return result, nil
}

// resolveHierarchy возвращает снимок принадлежности урока; пустой снимок
// плюс предупреждение, если разрешить не удалось.
func (h *RecordCompletionHandler) resolveHierarchy(
	ctx context.Context,
	lessonID shared.LessonID,
	result *RecordCompletionResult,
) completion.Hierarchy {
	ref, err := h.resolver.ResolveLesson(ctx, lessonID)
	if err == nil && ref != nil && ref.IsResolved() {
		return completion.Hierarchy{ModuleID: ref.ModuleID, CourseID: ref.CourseID}
	}

	switch {
	case errors.Is(err, shared.ErrNotFound):
		result.Warnings = append(result.Warnings, shared.NewWarning(
			shared.WarnDanglingReference,
			lessonID.String(),
			"lesson is not present in the content catalog",
		))
	default:
		result.Warnings = append(result.Warnings, shared.NewWarning(
			shared.WarnCatalogUnavailable,
			lessonID.String(),
			"content catalog lookup failed, hierarchy left unresolved",
		))
	}

	if h.log != nil {
		h.log.Warn("lesson hierarchy unresolved",
			logger.LessonID(lessonID.String()),
			logger.Err(err),
		)
	}

	return completion.Hierarchy{}
}

// awardPoints начисляет очки за переходы этого отчёта. Идемпотентность
// держится на уникальности (студент, причина, источник): повторное
// начисление журнал отклоняет, и это не ошибка.
func (h *RecordCompletionHandler) awardPoints(
	ctx context.Context,
	studentID shared.StudentID,
	lessonID shared.LessonID,
	upserted *completion.UpsertResult,
	result *RecordCompletionResult,
	now time.Time,
) {
	totalBefore, err := h.pointRepo.TotalByStudent(ctx, studentID)
	if err != nil {
		totalBefore = 0
	}
	result.LevelBefore = h.levelCurve.LevelForPoints(totalBefore)

	total := totalBefore

	if upserted.Outcome.FirstCompletion {
		total += h.appendPointEvent(ctx, studentID,
			gamification.ReasonLessonCompleted, lessonID.String(),
			h.pointsConfig.LessonCompletionPoints, result, now)
	}

	if best := upserted.Record.BestQuizScore; best != nil && *best >= h.pointsConfig.QuizPassScoreThreshold {
		total += h.appendPointEvent(ctx, studentID,
			gamification.ReasonQuizPassed, lessonID.String(),
			h.pointsConfig.QuizPassPoints, result, now)
	}

	result.LevelAfter = h.levelCurve.LevelForPoints(total)
	if result.LevelAfter > result.LevelBefore {
		result.Events = append(result.Events, shared.NewLevelUpEvent(
			studentID.String(), result.LevelBefore, result.LevelAfter, total,
		))
	}
}

// appendPointEvent кладёт запись в журнал начислений; возвращает реально
// начисленные очки (0 при дубликате или ошибке).
func (h *RecordCompletionHandler) appendPointEvent(
	ctx context.Context,
	studentID shared.StudentID,
	reason gamification.PointReason,
	sourceID string,
	points int,
	result *RecordCompletionResult,
	now time.Time,
) int {
	event, err := gamification.NewPointEvent(studentID, reason, sourceID, points, now)
	if err != nil {
		return 0
	}

	if err := h.pointRepo.Append(ctx, event); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return 0 // уже начислено раньше
		}
		if h.log != nil {
			h.log.Error("failed to append point event",
				logger.StudentID(studentID.String()),
				logger.String("reason", string(reason)),
				logger.Err(err),
			)
		}
		return 0
	}

	result.PointsAwarded += points
	result.Events = append(result.Events, shared.NewPointsEarnedEvent(
		studentID.String(), points, 0, string(reason), sourceID,
	))
	return points
}

// evaluateBadges оценивает правила бейджей против производного состояния
// студента и присваивает новые. Неполное состояние (каталог недоступен)
// означает, что курсовые бейджи просто подождут следующего отчёта.
func (h *RecordCompletionHandler) evaluateBadges(
	ctx context.Context,
	studentID shared.StudentID,
	result *RecordCompletionResult,
	now time.Time,
) {
	state, ok := h.buildDerivedState(ctx, studentID)
	if !ok {
		return
	}

	earned, err := h.badgeRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return
	}

	newBadges := gamification.EvaluateBadges(studentID, state, earned, h.badgeDefs, now)
	for _, badge := range newBadges {
		if err := h.badgeRepo.Award(ctx, badge); err != nil {
			if !errors.Is(err, shared.ErrAlreadyExists) && h.log != nil {
				h.log.Error("failed to award badge",
					logger.StudentID(studentID.String()),
					logger.BadgeType(string(badge.Type)),
					logger.Err(err),
				)
			}
			continue
		}

		result.NewBadges = append(result.NewBadges, badge)

		def, _ := gamification.DefinitionFor(badge.Type, h.badgeDefs)
		if def.BonusPoints > 0 {
			h.appendPointEvent(ctx, studentID,
				gamification.ReasonBadgeUnlocked, string(badge.Type),
				def.BonusPoints, result, now)
		}

		result.Events = append(result.Events, shared.NewBadgeEarnedEvent(
			studentID.String(), string(badge.Type), def.BonusPoints,
		))
	}
}

// buildDerivedState собирает срез состояния для правил бейджей.
func (h *RecordCompletionHandler) buildDerivedState(
	ctx context.Context,
	studentID shared.StudentID,
) (gamification.DerivedState, bool) {
	records, err := h.completionRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return gamification.DerivedState{}, false
	}

	state := gamification.DerivedState{}
	for _, rec := range records {
		if rec.IsCompleted() {
			state.CompletedLessons++
		}
		if rec.BestQuizScore != nil && *rec.BestQuizScore > state.BestQuizScore {
			state.BestQuizScore = *rec.BestQuizScore
		}
	}

	if total, err := h.pointRepo.TotalByStudent(ctx, studentID); err == nil {
		state.TotalPoints = total
	}

	state.CompletedCourses = h.countCompletedCourses(ctx, studentID, records)
	state.LongestStreakDays = longestStreak(studentID, records)

	return state, true
}

// countCompletedCourses считает завершённые курсы по текущей структуре
// каталога. Недоступный каталог даёт 0 - бейдж подождёт.
func (h *RecordCompletionHandler) countCompletedCourses(
	ctx context.Context,
	studentID shared.StudentID,
	records []*completion.CompletionRecord,
) int {
	enrollments, err := h.resolver.ListEnrollments(ctx, studentID)
	if err != nil {
		return 0
	}

	completedByLesson := make(map[shared.LessonID]bool, len(records))
	for _, rec := range records {
		if rec.IsCompleted() {
			completedByLesson[rec.LessonID] = true
		}
	}

	count := 0
	for _, enr := range enrollments {
		lessons, err := h.resolver.ListLessonsForCourse(ctx, enr.CourseID)
		if err != nil || len(lessons) == 0 {
			continue
		}
		done := 0
		for _, id := range lessons {
			if completedByLesson[id] {
				done++
			}
		}
		if done >= len(lessons) {
			count++
		}
	}
	return count
}

// updateLeaderboard обновляет рейтинг новой суммой очков; best-effort.
func (h *RecordCompletionHandler) updateLeaderboard(
	ctx context.Context,
	studentID shared.StudentID,
	result *RecordCompletionResult,
) {
	if h.leaderboard == nil || result.PointsAwarded == 0 {
		return
	}

	total, err := h.pointRepo.TotalByStudent(ctx, studentID)
	if err != nil {
		return
	}

	if err := h.leaderboard.UpdateScore(ctx, studentID, total); err != nil && h.log != nil {
		h.log.Warn("failed to update leaderboard",
			logger.StudentID(studentID.String()),
			logger.Err(err),
		)
	}
}

// longestStreak - самая длинная серия активных дней за всю историю.
// Для правил бейджей достаточно UTC: самая длинная серия от "сейчас"
// не зависит.
func longestStreak(studentID shared.StudentID, records []*completion.CompletionRecord) int {
	return progress.ComputeStreak(studentID, records, time.UTC, time.Now().UTC()).LongestStreakDays
}
